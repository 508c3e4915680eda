package descriptor

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/mark3labs/apigen/internal/errs"
)

// Settings configures HTTPSource behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// Client overrides the HTTP client; the timeout above is ignored when set.
	Client *http.Client
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 30 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithHTTPClient(c *http.Client) Option { return func(s *Settings) { s.Client = c } }

// HTTPSource fetches descriptors from a live endpoint with signed GET requests.
type HTTPSource struct {
	endpoint *url.URL
	apiKey   string
	signer   Signer
	settings Settings
	client   *http.Client
}

// NewHTTPSource validates the endpoint and returns a source. Only http and
// https endpoints are accepted.
func NewHTTPSource(endpoint, apiKey string, signer Signer, opts ...Option) (*HTTPSource, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errs.New(errs.ConfigurationError, "endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, errs.New(errs.ConfigurationError, "endpoint %q is not an absolute URL", endpoint)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, errs.New(errs.ConfigurationError, "unsupported endpoint scheme %q (only http/https allowed)", u.Scheme)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errs.New(errs.ConfigurationError, "api key is empty")
	}
	if signer == nil {
		return nil, errs.New(errs.ConfigurationError, "signer is required")
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	client := settings.Client
	if client == nil {
		client = &http.Client{Timeout: settings.HTTPTimeout}
	}
	return &HTTPSource{endpoint: u, apiKey: apiKey, signer: signer, settings: settings, client: client}, nil
}

func (s *HTTPSource) ListMethods(ctx context.Context) ([]Raw, error) {
	doc, location, err := s.command(ctx, "listApis")
	if err != nil {
		return nil, err
	}
	return extractAPIs(doc, location)
}

func (s *HTTPSource) ListCapabilities(ctx context.Context) (*Capabilities, error) {
	doc, location, err := s.command(ctx, "listCapabilities")
	if err != nil {
		return nil, err
	}
	return extractCapabilities(doc, location)
}

// command issues one API command and decodes the JSON body.
func (s *HTTPSource) command(ctx context.Context, name string) (any, string, error) {
	params := url.Values{}
	params.Set("command", name)
	params.Set("response", "json")
	params.Set("apiKey", s.apiKey)
	signature, err := s.signer.Sign(params)
	if err != nil {
		return nil, "", errs.Wrap(errs.ConfigurationError, err, "sign %s request", name)
	}
	params.Set("signature", signature)

	u := *s.endpoint
	u.RawQuery = params.Encode()
	// Location excludes the query so keys and signatures never reach logs.
	bare := *s.endpoint
	bare.RawQuery = ""
	location := bare.Redacted() + " (" + name + ")"

	body, err := s.fetchWithRetry(ctx, u.String())
	if err != nil {
		return nil, location, errs.Wrap(errs.TransportError, err, "fetch %s", location)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, location, errs.New(errs.TransportError, "%s: empty body", location)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, location, errs.Wrap(errs.TransportError, err, "%s: body is not JSON", location)
	}
	return doc, location, nil
}

func (s *HTTPSource) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	backoff := s.settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := s.settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := s.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// fetchOnce performs a single GET and reports whether a failure is transient.
func (s *HTTPSource) fetchOnce(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, redactURLError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = errs.New(errs.TransportError, "http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	return nil, transient, err
}

// redactURLError strips the query string from *url.Error messages.
func redactURLError(err error) error {
	ue, ok := err.(*url.Error)
	if !ok {
		return err
	}
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		ue.URL = u.String()
	}
	return ue
}
