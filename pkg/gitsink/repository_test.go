package gitsink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	tests := []struct {
		name      string
		domain    string
		wantEmail string
	}{
		{"Franc Križanič", "gov.si", "franc.križanič@gov.si"},
		{"  Janez   Janša ", "gov.si", "janez.janša@gov.si"},
		{"Mojca Kucler Dolinar", "", "mojca.kucler.dolinar@gov.si"},
		{"Ana Novak", "example.org", "ana.novak@example.org"},
	}

	for _, tt := range tests {
		identity := NewIdentity(tt.name, tt.domain)
		assert.Equal(t, tt.wantEmail, identity.Email, tt.name)
		assert.Equal(t, strings.TrimSpace(tt.name), identity.Name)
	}
}

func TestOpen_InitializesMissingRepository(t *testing.T) {
	root := filepath.Join(t.TempDir(), "laws")

	repository, err := Open(root, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, ".git"))
	assert.NoError(t, err)

	count, err := repository.CommitCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	reopened, err := Open(root, nil)
	require.NoError(t, err)
	assert.Equal(t, root, reopened.Root())
}

func TestCommitFile_AuthorshipAndDates(t *testing.T) {
	repository, err := Open(t.TempDir(), nil)
	require.NoError(t, err)

	identity := NewIdentity("Franc Križanič", "gov.si")
	adopted := time.Date(2010, 5, 15, 0, 0, 0, 0, time.UTC)

	hash, err := repository.CommitFile(context.Background(), "ZDoh-2.html", []byte("<p>\n x\n</p>\n"),
		"ZDoh-2A - 102 - Zakon o dohodnini", identity, adopted)
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	written, err := os.ReadFile(filepath.Join(repository.Root(), "ZDoh-2.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>\n x\n</p>\n", string(written))

	history, err := repository.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, hash, history[0].Hash)
	assert.Equal(t, "ZDoh-2A - 102 - Zakon o dohodnini", strings.TrimSpace(history[0].Message))
	assert.Equal(t, identity, history[0].Author)
	assert.True(t, adopted.Equal(history[0].When), "got %s", history[0].When)
}

func TestCommitFile_SameFileAccumulatesHistory(t *testing.T) {
	repository, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	identity := NewIdentity("Ana Novak", "gov.si")
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2006, 11, 26, 0, 0, 0, 0, time.UTC),
		time.Date(2007, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	contents := []string{"v1\n", "v2\n", "v2\n"}
	for i := range dates {
		_, err := repository.CommitFile(ctx, "Z.html", []byte(contents[i]), "version", identity, dates[i])
		require.NoError(t, err)
	}

	count, err := repository.CommitCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "unchanged content still produces a commit")

	history, err := repository.History()
	require.NoError(t, err)
	assert.True(t, dates[2].Equal(history[0].When), "newest first")
}

func TestCommitFile_RejectsEscapingPaths(t *testing.T) {
	repository, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	identity := NewIdentity("Ana Novak", "gov.si")

	for _, filename := range []string{"", "../outside.html", "/etc/passwd"} {
		_, err := repository.CommitFile(context.Background(), filename, []byte("x"), "m", identity, time.Now())
		assert.Error(t, err, filename)
	}
}

func TestCommitFile_CancelledContext(t *testing.T) {
	repository, err := Open(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repository.CommitFile(ctx, "Z.html", []byte("x"), "m", NewIdentity("A B", ""), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
