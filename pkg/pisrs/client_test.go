package pisrs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lawgit/pkg/types"
)

// MockHTTPClient implements HTTPClient for testing.
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (mockClient *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return mockClient.DoFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// newTestClient creates a Client with a mock HTTP client and no rate limit
// for fast tests.
func newTestClient(t *testing.T, mockClient *MockHTTPClient) *Client {
	t.Helper()
	pisrsClient, err := NewClient(ClientConfig{
		APIKey:     "test-key",
		HTTPClient: mockClient,
		RateLimit:  0,
	})
	require.NoError(t, err)
	return pisrsClient
}

const zdohRegisterBody = `{
  "data": [{
    "id": 4697,
    "mopedId": "ZAKO4697",
    "kratica": "ZDoh-2",
    "naziv": "Zakon o dohodnini",
    "datumSprejetja": "2006-10-19",
    "datumObjave": "2006-11-10",
    "osnovni": true,
    "epa": "EPA-1234-IV",
    "sop": "2006-01-5179",
    "eva": "2006-1611-0066",
    "citat": "Uradni list RS, st. 117/06",
    "organOdgovorenZaPripravo": [{"naziv": "Ministrstvo za finance"}],
    "organKiJeSprejelOzIzdalAkt": {"naziv": "Drzavni zbor"},
    "posegiVPredpis": [
      {"mopedID": "ZAKO5001", "naziv": "Zakon o spremembah in dopolnitvah Zakona o dohodnini (ZDoh-2A)", "datumSprejetja": "2007-05-10"},
      {"mopedID": "ZAKO5002", "naziv": "Zakon o spremembah Zakona o dohodnini", "datumSprejetja": "2007-12-01"}
    ]
  }]
}`

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGetBaseLaw_ParsesRegisterEntry(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/extapi/predpis/register-predpisov", req.URL.Path)
			assert.Equal(t, "ZAKO4697", req.URL.Query().Get("mopedID"))
			assert.Equal(t, "test-key", req.Header.Get("X-API-Key"))
			assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
			return jsonResponse(http.StatusOK, zdohRegisterBody), nil
		},
	}

	baseLaw, err := newTestClient(t, mockClient).GetBaseLaw(context.Background(), "ZAKO4697")
	require.NoError(t, err)

	assert.Equal(t, "ZAKO4697", baseLaw.MopedID)
	assert.Equal(t, "ZDoh-2", baseLaw.ShortCode)
	assert.Equal(t, "Zakon o dohodnini", baseLaw.Title)
	assert.Equal(t, types.MustParseDate("2006-10-19"), baseLaw.AdoptionDate)
	assert.Equal(t, "Ministrstvo za finance", baseLaw.ResponsibleMinistry)
	assert.Equal(t, "Drzavni zbor", baseLaw.AdoptingBody)
	require.Len(t, baseLaw.Amendments, 2)
	assert.Equal(t, "ZAKO5001", baseLaw.Amendments[0].MopedID)
	assert.Equal(t, types.MustParseDate("2007-05-10"), baseLaw.Amendments[0].Date)
}

func TestGetBaseLaw_OrganAsSingleObject(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK,
				`{"data":[{"mopedId":"ZAKO1","kratica":"ZX","organOdgovorenZaPripravo":{"naziv":"Ministrstvo za zdravje"}}]}`), nil
		},
	}

	baseLaw, err := newTestClient(t, mockClient).GetBaseLaw(context.Background(), "ZAKO1")
	require.NoError(t, err)
	assert.Equal(t, "Ministrstvo za zdravje", baseLaw.ResponsibleMinistry)
	assert.Empty(t, baseLaw.AdoptingBody)
}

func TestGetBaseLaw_NotFound(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"data":[]}`), nil
		},
	}

	_, err := newTestClient(t, mockClient).GetBaseLaw(context.Background(), "ZAKO0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBaseLaw_IsMemoized(t *testing.T) {
	var requestCount atomic.Int32
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			requestCount.Add(1)
			return jsonResponse(http.StatusOK, zdohRegisterBody), nil
		},
	}

	pisrsClient := newTestClient(t, mockClient)
	require.NoError(t, pisrsClient.ValidateAccess(context.Background()))
	_, err := pisrsClient.GetBaseLaw(context.Background(), "ZAKO4697")
	require.NoError(t, err)

	assert.Equal(t, int32(1), requestCount.Load(), "probe and target are the same law; expected one request")
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, pisrsClient.CacheStats())
}

func TestValidateAccess_Unauthorized(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":"invalid key"}`), nil
		},
	}

	err := newTestClient(t, mockClient).ValidateAccess(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), DefaultProbeLawID)
}

func TestValidateAccess_NetworkError(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	err := newTestClient(t, mockClient).ValidateAccess(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetVersions_FallsBackAcrossIdentifiers(t *testing.T) {
	var searchedParams []string
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			switch {
			case query.Get("epa") != "":
				searchedParams = append(searchedParams, "epa")
				return jsonResponse(http.StatusInternalServerError, `oops`), nil
			case query.Get("sop") != "":
				searchedParams = append(searchedParams, "sop")
				return jsonResponse(http.StatusOK, `{"data":[
					{"id": 30, "naziv": "Zakon o dohodnini (NPB3)", "datumDokumenta": "2008-01-01"},
					{"id": 10, "naziv": "Zakon o dohodnini", "datumDokumenta": "2006-11-26"},
					{"id": 20, "naziv": "Zakon o dohodnini (NPB2)", "datumDokumenta": "2007-06-01"}
				]}`), nil
			default:
				t.Errorf("unexpected search %s", req.URL.RawQuery)
				return jsonResponse(http.StatusOK, `{"data":[]}`), nil
			}
		},
	}

	baseLaw := &LawMetadata{
		MopedID:             "ZAKO4697",
		EPA:                 "EPA-1",
		SOP:                 "SOP-1",
		EVA:                 "EVA-1",
		ResponsibleMinistry: "Ministrstvo za finance",
		AdoptingBody:        "Drzavni zbor",
	}
	versions, err := newTestClient(t, mockClient).GetVersions(context.Background(), baseLaw)
	require.NoError(t, err)

	assert.Equal(t, []string{"epa", "sop"}, searchedParams)
	require.Len(t, versions, 3)
	assert.Equal(t, "10", versions[0].VersionID)
	assert.Equal(t, "20", versions[1].VersionID)
	assert.Equal(t, "30", versions[2].VersionID)
	for index, version := range versions {
		assert.Equal(t, index+1, version.SequenceNumber)
		assert.Equal(t, "Ministrstvo za finance", version.ResponsibleMinistry)
		assert.Equal(t, "Drzavni zbor", version.AdoptingBody)
	}
}

func TestGetVersions_NoIdentifiers(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request expected")
			return nil, nil
		},
	}

	_, err := newTestClient(t, mockClient).GetVersions(context.Background(), &LawMetadata{MopedID: "ZAKO1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetVersions_UnauthorizedAborts(t *testing.T) {
	var requestCount atomic.Int32
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			requestCount.Add(1)
			return jsonResponse(http.StatusForbidden, ``), nil
		},
	}

	_, err := newTestClient(t, mockClient).GetVersions(context.Background(),
		&LawMetadata{MopedID: "ZAKO1", EPA: "a", SOP: "b", EVA: "c"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), requestCount.Load())
}

func TestGetContent(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/extapi/besedilo/10":
				return jsonResponse(http.StatusOK, "<p>1. clen</p>"), nil
			case "/extapi/besedilo/11":
				return jsonResponse(http.StatusOK, "   "), nil
			default:
				return jsonResponse(http.StatusNotFound, ""), nil
			}
		},
	}
	pisrsClient := newTestClient(t, mockClient)

	content, err := pisrsClient.GetContent(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "<p>1. clen</p>", content)

	_, err = pisrsClient.GetContent(context.Background(), "11")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pisrsClient.GetContent(context.Background(), "12")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pisrsClient.GetContent(context.Background(), "../etc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSortVersions_UndatedLast(t *testing.T) {
	versions := []LawVersion{
		{VersionID: "undated"},
		{VersionID: "late", AdoptionDate: types.MustParseDate("2010-01-01")},
		{VersionID: "early", AdoptionDate: types.MustParseDate("2001-01-01")},
	}

	SortVersions(versions)

	assert.Equal(t, "early", versions[0].VersionID)
	assert.Equal(t, "late", versions[1].VersionID)
	assert.Equal(t, "undated", versions[2].VersionID)
	assert.Equal(t, 3, versions[2].SequenceNumber)
}

func TestRateLimitedHTTPClient_HonorsContext(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, ""), nil
		},
	}
	rateLimitedClient := NewRateLimitedHTTPClient(mockClient, time.Hour)

	first, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)
	_, err = rateLimitedClient.Do(first)
	require.NoError(t, err, "first request uses the initial token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	second, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)
	_, err = rateLimitedClient.Do(second)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
