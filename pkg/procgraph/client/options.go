package client

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/randalmurphal/procgraph/pkg/procgraph/config"
	"github.com/randalmurphal/procgraph/pkg/procgraph/observability"
)

// Option configures a Client at Connect time.
type Option func(*settings) error

type settings struct {
	retryMax   int
	timeout    time.Duration
	authHeader string
	httpClient *http.Client

	logger  *slog.Logger
	spans   observability.SpanManager
	metrics observability.MetricsRecorder
}

func defaultSettings() *settings {
	def := config.Default()
	return &settings{
		retryMax: def.HTTP.RetryMax,
		timeout:  def.HTTP.Timeout.Std(),
		spans:    observability.NoopSpanManager{},
		metrics:  observability.NoopMetrics{},
	}
}

// buildHTTPClient returns the configured transport. An explicit
// WithHTTPClient wins over the retrying default.
func (s *settings) buildHTTPClient() *http.Client {
	if s.httpClient != nil {
		return s.httpClient
	}
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = s.retryMax
	// Hand the final response back once retries are exhausted so the
	// status code and error body still reach the HTTPError mapping.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	std := rc.StandardClient()
	std.Timeout = s.timeout
	return std
}

func (s *settings) headers() map[string]string {
	h := map[string]string{}
	if s.authHeader != "" {
		h["Authorization"] = s.authHeader
	}
	return h
}

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) Option {
	return func(s *settings) error {
		if username == "" {
			return fmt.Errorf("client: basic auth requires a username")
		}
		cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		s.authHeader = "Basic " + cred
		return nil
	}
}

// WithBearerToken authenticates every request with a bearer token.
// If the token is a JWT with an expiry claim, an already-expired token
// is rejected here rather than on the first request.
func WithBearerToken(token string) Option {
	return func(s *settings) error {
		if token == "" {
			return fmt.Errorf("client: bearer auth requires a token")
		}
		if err := checkTokenExpiry(token); err != nil {
			return err
		}
		s.authHeader = "Bearer " + token
		return nil
	}
}

// checkTokenExpiry inspects a JWT's exp claim without verifying the
// signature; verification is the backend's job. Opaque tokens pass.
func checkTokenExpiry(token string) error {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("client: bearer token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// WithRetryMax sets the maximum number of retries per request.
func WithRetryMax(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return fmt.Errorf("client: retry max cannot be negative")
		}
		s.retryMax = n
		return nil
	}
}

// WithTimeout bounds a single request including retries.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) error {
		s.timeout = d
		return nil
	}
}

// WithHTTPClient replaces the default retrying transport entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) error {
		s.httpClient = hc
		return nil
	}
}

// WithLogger enables structured request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithSpanManager enables distributed tracing of backend requests.
func WithSpanManager(m observability.SpanManager) Option {
	return func(s *settings) error {
		s.spans = m
		return nil
	}
}

// WithMetrics enables request and job metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *settings) error {
		s.metrics = m
		return nil
	}
}

// WithConfig applies a loaded configuration file. URL is taken from the
// Connect argument, not the config; auth, retries, and timeout come
// from the config.
func WithConfig(cfg config.Config) Option {
	return func(s *settings) error {
		switch cfg.Auth.Mode {
		case "", "none":
		case "basic":
			if err := WithBasicAuth(cfg.Auth.Username, cfg.Auth.Password)(s); err != nil {
				return err
			}
		case "bearer":
			if err := WithBearerToken(cfg.Auth.Token)(s); err != nil {
				return err
			}
		default:
			return fmt.Errorf("client: unknown auth mode %q", cfg.Auth.Mode)
		}
		s.retryMax = cfg.HTTP.RetryMax
		if cfg.HTTP.Timeout != 0 {
			s.timeout = cfg.HTTP.Timeout.Std()
		}
		return nil
	}
}

// logSink funnels request logging through the observability helpers,
// tolerating a nil logger.
type logSink struct {
	logger *slog.Logger
}

func (l *logSink) request(method, path string) {
	observability.LogRequest(l.logger, method, path)
}

func (l *logSink) response(method, path string, status int, durationMs float64) {
	observability.LogResponse(l.logger, method, path, status, durationMs)
}

func (l *logSink) requestError(method, path string, err error) {
	observability.LogRequestError(l.logger, method, path, err)
}

func elapsed(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
