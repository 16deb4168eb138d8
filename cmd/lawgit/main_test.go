package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coolbeans/lawgit/pkg/materialize"
	"github.com/coolbeans/lawgit/pkg/pisrs"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("validating PISRS access: %w", pisrs.ErrUnauthorized), "PISRS rejected the API key"},
		{fmt.Errorf("fetching law ZAKO1: %w", pisrs.ErrNotFound), "law not found"},
		{fmt.Errorf("validating PISRS access: %w: %w", materialize.ErrAccess, pisrs.ErrUnauthorized), "PISRS rejected the API key"},
		{fmt.Errorf("validating PISRS access: %w: %w", materialize.ErrAccess, pisrs.ErrNotFound), "could not validate PISRS access"},
		{fmt.Errorf("fetching versions of ZAKO1: %w: %w", materialize.ErrNoVersions, pisrs.ErrNotFound), "no consolidated versions"},
		{materialize.ErrNoLawConverted, "none of the laws"},
		{pisrs.ErrMissingAPIKey, "PISRS_API_KEY"},
		{materialize.ErrNothingCommitted, "nothing was committed"},
		{fmt.Errorf("building timeline: %w", materialize.ErrNoTimeline), "no processable versions"},
		{context.Canceled, "interrupted"},
		{fmt.Errorf("disk on fire"), "disk on fire"},
	}

	for _, tt := range tests {
		assert.Contains(t, diagnose(tt.err), tt.want)
	}
}

func TestCommandTree(t *testing.T) {
	convert := convertCmd()
	for _, flag := range []string{"law-id", "output-dir", "pisrs-api-key", "request-interval", "report-json"} {
		assert.NotNil(t, convert.Flags().Lookup(flag), flag)
	}

	convertAll := convertAllCmd()
	for _, flag := range []string{"output-dir", "pisrs-api-key", "probe-law-id"} {
		assert.NotNil(t, convertAll.Flags().Lookup(flag), flag)
	}
	assert.Error(t, convertAll.Args(convertAll, nil), "at least one law is required")

	names := map[string]bool{}
	for _, sub := range ministersCmd().Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["lookup"])
	assert.True(t, names["stats"])
}

func TestLawRepositoryPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/laws", "law_zako4697"), lawRepositoryPath("/tmp/laws", "ZAKO4697"))
}
