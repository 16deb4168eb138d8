package pisrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/types"
)

// DefaultBaseURL is the PISRS external API root.
const DefaultBaseURL = "https://pisrs.si/extapi"

// DefaultUserAgent is the default User-Agent header sent with PISRS requests.
const DefaultUserAgent = "lawgit-pisrs-connector/1.0"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultProbeLawID is the law fetched by ValidateAccess: the Personal
// Income Tax Act (ZDoh-2), which has been in the register since 2006.
const DefaultProbeLawID = "ZAKO4697"

// npbPageSize bounds the number of consolidated versions returned per search.
const npbPageSize = 100

var (
	// ErrNotFound is returned when the register has no record for an
	// identifier, or a content document does not exist.
	ErrNotFound = errors.New("pisrs: not found")

	// ErrUnauthorized is returned when PISRS rejects the API key.
	ErrUnauthorized = errors.New("pisrs: unauthorized")

	// ErrMissingAPIKey is returned by NewClient when no API key is configured.
	ErrMissingAPIKey = errors.New("pisrs: API key not configured (set PISRS_API_KEY)")
)

// Source is the read-only law-version source consumed by the conversion
// pipeline. Client implements it against the live PISRS API; tests supply
// in-memory fakes.
type Source interface {
	// ValidateAccess checks that the source is reachable and accepts our
	// credentials.
	ValidateAccess(ctx context.Context) error

	// GetBaseLaw returns the register entry for a MOPED identifier, or
	// ErrNotFound.
	GetBaseLaw(ctx context.Context, mopedID string) (*LawMetadata, error)

	// GetVersions returns the consolidated versions of a base law ordered by
	// adoption date ascending, with sequence numbers 1..n.
	GetVersions(ctx context.Context, base *LawMetadata) ([]LawVersion, error)

	// GetContent returns the raw HTML of one consolidated version, or
	// ErrNotFound.
	GetContent(ctx context.Context, versionID string) (string, error)
}

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	// BaseURL is the API root. Default: DefaultBaseURL.
	BaseURL string

	// APIKey is sent in the X-API-Key header. Required.
	APIKey string

	// RateLimit is the minimum interval between HTTP requests.
	// Default: 1 second.
	RateLimit time.Duration

	// Timeout bounds each request. Default: 30 seconds.
	Timeout time.Duration

	// CacheTTL is the lifetime of memoized register entries.
	// Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient is the underlying HTTP client used for requests.
	// If nil, http.DefaultClient is used (wrapped with rate limiting).
	HTTPClient HTTPClient

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// ProbeLawID is the law fetched by ValidateAccess.
	ProbeLawID string

	// Logger receives request diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults. The API key
// must still be filled in.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    DefaultBaseURL,
		RateLimit:  DefaultRequestInterval,
		Timeout:    DefaultTimeout,
		CacheTTL:   DefaultCacheTTL,
		HTTPClient: nil, // Will use http.DefaultClient.
		UserAgent:  DefaultUserAgent,
		ProbeLawID: DefaultProbeLawID,
	}
}

// Client retrieves law metadata, consolidated versions and content from the
// PISRS external API with rate limiting and per-run memoization of register
// lookups.
type Client struct {
	httpClient HTTPClient
	cache      *RegisterCache
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	probeLawID string
	logger     *zap.Logger
}

var _ Source = (*Client)(nil)

// NewClient creates a new Client with the given configuration.
// If config.HTTPClient is nil, http.DefaultClient is used and wrapped with rate limiting.
func NewClient(config ClientConfig) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = http.DefaultClient
	}

	defaults := DefaultConfig()
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaults.BaseURL
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaults.UserAgent
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaults.CacheTTL
	}
	probeLawID := config.ProbeLawID
	if probeLawID == "" {
		probeLawID = defaults.ProbeLawID
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: NewRateLimitedHTTPClient(underlyingClient, config.RateLimit),
		cache:      NewRegisterCache(cacheTTL),
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		userAgent:  userAgent,
		timeout:    timeout,
		probeLawID: probeLawID,
		logger:     logger.Named("pisrs"),
	}, nil
}

// CacheStats reports how many register lookups were served from memory.
func (pisrsClient *Client) CacheStats() CacheStats {
	return pisrsClient.cache.Stats()
}

// ValidateAccess fetches the probe law to confirm the API is reachable and
// the key is accepted.
func (pisrsClient *Client) ValidateAccess(ctx context.Context) error {
	if _, err := pisrsClient.registerEntry(ctx, pisrsClient.probeLawID); err != nil {
		return fmt.Errorf("validating PISRS access with probe law %s: %w", pisrsClient.probeLawID, err)
	}
	pisrsClient.logger.Info("PISRS API access validated", zap.String("probe_law_id", pisrsClient.probeLawID))
	return nil
}

// GetBaseLaw returns the register entry for the given MOPED identifier.
func (pisrsClient *Client) GetBaseLaw(ctx context.Context, mopedID string) (*LawMetadata, error) {
	entry, err := pisrsClient.registerEntry(ctx, mopedID)
	if err != nil {
		return nil, err
	}
	return entry.toMetadata(pisrsClient.logger), nil
}

// GetVersions searches the NPB index by the base law's EPA, SOP and EVA
// identifiers (in that order, first non-empty result wins) and returns the
// consolidated versions sorted by document date.
func (pisrsClient *Client) GetVersions(ctx context.Context, base *LawMetadata) ([]LawVersion, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: no base law given", ErrNotFound)
	}

	searches := []struct{ param, value string }{
		{"epa", base.EPA},
		{"sop", base.SOP},
		{"eva", base.EVA},
	}

	var entries []npbEntry
	searched := false
	for _, search := range searches {
		if search.value == "" {
			continue
		}
		searched = true

		query := url.Values{}
		query.Set(search.param, search.value)
		query.Set("pageSize", strconv.Itoa(npbPageSize))

		var response npbResponse
		if err := pisrsClient.getJSON(ctx, "/npb", query, &response); err != nil {
			if errors.Is(err, ErrUnauthorized) || ctx.Err() != nil {
				return nil, err
			}
			pisrsClient.logger.Warn("NPB search failed",
				zap.String("param", search.param), zap.String("value", search.value), zap.Error(err))
			continue
		}
		if len(response.Data) > 0 {
			entries = response.Data
			pisrsClient.logger.Info("found NPB versions",
				zap.Int("count", len(entries)), zap.String("param", search.param))
			break
		}
	}

	if !searched {
		return nil, fmt.Errorf("%w: law %s has no EPA/SOP/EVA identifiers", ErrNotFound, base.MopedID)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no NPB versions for law %s", ErrNotFound, base.MopedID)
	}

	versions := make([]LawVersion, 0, len(entries))
	for _, entry := range entries {
		adoptionDate, err := types.ParseDate(entry.DatumDokumenta)
		if err != nil {
			pisrsClient.logger.Warn("unparseable NPB document date",
				zap.Int64("npb_id", entry.ID), zap.String("date", entry.DatumDokumenta))
		}
		versions = append(versions, LawVersion{
			VersionID:           strconv.FormatInt(entry.ID, 10),
			AdoptionDate:        adoptionDate,
			Title:               strings.TrimSpace(entry.Naziv),
			ResponsibleMinistry: base.ResponsibleMinistry,
			AdoptingBody:        base.AdoptingBody,
			DocumentNumber:      entry.StevilkaDokumenta,
		})
	}

	SortVersions(versions)
	return versions, nil
}

// GetContent returns the raw HTML body of a consolidated version.
func (pisrsClient *Client) GetContent(ctx context.Context, versionID string) (string, error) {
	if _, err := strconv.ParseInt(versionID, 10, 64); err != nil {
		return "", fmt.Errorf("%w: invalid NPB id %q", ErrNotFound, versionID)
	}

	body, err := pisrsClient.get(ctx, "/besedilo/"+versionID, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", fmt.Errorf("%w: empty content for NPB %s", ErrNotFound, versionID)
	}

	pisrsClient.logger.Debug("fetched content", zap.String("version_id", versionID), zap.Int("bytes", len(body)))
	return string(body), nil
}

// SortVersions orders versions by adoption date ascending (undated versions
// last) and renumbers them 1..n.
func SortVersions(versions []LawVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		left, right := versions[i].AdoptionDate, versions[j].AdoptionDate
		if left.IsZero() != right.IsZero() {
			return right.IsZero()
		}
		return left.Before(right)
	})
	for index := range versions {
		versions[index].SequenceNumber = index + 1
	}
}

func (pisrsClient *Client) registerEntry(ctx context.Context, mopedID string) (registerEntry, error) {
	if cached, found := pisrsClient.cache.Get(mopedID); found {
		return cached, nil
	}

	query := url.Values{}
	query.Set("mopedID", mopedID)
	query.Set("pageSize", "1")

	var response registerResponse
	if err := pisrsClient.getJSON(ctx, "/predpis/register-predpisov", query, &response); err != nil {
		return registerEntry{}, err
	}
	if len(response.Data) == 0 {
		return registerEntry{}, fmt.Errorf("%w: law %s", ErrNotFound, mopedID)
	}

	entry := response.Data[0]
	pisrsClient.cache.Set(mopedID, entry)
	return entry, nil
}

func (pisrsClient *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := pisrsClient.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding PISRS response from %s: %w", path, err)
	}
	return nil
}

func (pisrsClient *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	requestURL := pisrsClient.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	requestCtx, cancel := context.WithTimeout(ctx, pisrsClient.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(requestCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	request.Header.Set("X-API-Key", pisrsClient.apiKey)
	request.Header.Set("User-Agent", pisrsClient.userAgent)
	request.Header.Set("Accept", "application/json, text/html")

	pisrsClient.logger.Debug("PISRS request", zap.String("path", path), zap.String("query", query.Encode()))

	response, err := pisrsClient.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d for %s", ErrUnauthorized, response.StatusCode, path)
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: HTTP %d for %s", ErrNotFound, response.StatusCode, path)
	case response.StatusCode >= 400:
		return nil, fmt.Errorf("PISRS returned HTTP %d for %s", response.StatusCode, path)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return body, nil
}

func (entry registerEntry) toMetadata(logger *zap.Logger) *LawMetadata {
	adoptionDate, err := types.ParseDate(entry.DatumSprejetja)
	if err != nil {
		logger.Debug("unparseable adoption date", zap.String("moped_id", entry.MopedID), zap.Error(err))
	}
	publicationDate, err := types.ParseDate(entry.DatumObjave)
	if err != nil {
		logger.Debug("unparseable publication date", zap.String("moped_id", entry.MopedID), zap.Error(err))
	}

	metadata := &LawMetadata{
		MopedID:             entry.MopedID,
		ShortCode:           strings.TrimSpace(entry.Kratica),
		Title:               strings.TrimSpace(entry.Naziv),
		AdoptionDate:        adoptionDate,
		PublicationDate:     publicationDate,
		EPA:                 entry.EPA,
		SOP:                 entry.SOP,
		EVA:                 entry.EVA,
		Citation:            entry.Citat,
		ResponsibleMinistry: strings.TrimSpace(entry.OrganOdgovorenZaPripravo.first()),
	}
	if entry.OrganKiJeSprejelOzIzdalAkt != nil {
		metadata.AdoptingBody = strings.TrimSpace(entry.OrganKiJeSprejelOzIzdalAkt.Naziv)
	}

	for _, amendment := range entry.PosegiVPredpis {
		// Amendment dates are informational only; a bad one is not worth a warning.
		amendmentDate, _ := types.ParseDate(amendment.DatumSprejetja)
		metadata.Amendments = append(metadata.Amendments, AmendmentEvent{
			Name:    strings.TrimSpace(amendment.Naziv),
			MopedID: amendment.MopedID,
			Date:    amendmentDate,
		})
	}

	return metadata
}
