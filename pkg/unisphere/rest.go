package unisphere

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/logging"
)

// RESTConfig configures the REST source.
type RESTConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	VerifyTLS  bool
	APIVersion string
	Timeout    time.Duration
	ArrayID    string

	// BaseURL overrides the URL derived from Host, Port and APIVersion.
	BaseURL string
}

func (c RESTConfig) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s:%d/univmax/restapi/%s", c.Host, c.Port, c.APIVersion)
}

// RESTSource reads from the Unisphere REST API.
type RESTSource struct {
	client  *resty.Client
	arrayID string
	logger  *logrus.Logger
	tracer  Tracer
}

// NewRESTSource creates a REST source. Credentials are sent as basic auth on every request.
func NewRESTSource(cfg RESTConfig, logger *logrus.Logger) *RESTSource {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.VerifyTLS {
		logger.Warn("TLS certificate verification is disabled for the Unisphere API")
	}

	client := resty.New().
		SetBaseURL(cfg.baseURL()).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: !cfg.VerifyTLS})
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &RESTSource{
		client:  client,
		arrayID: cfg.ArrayID,
		logger:  logger,
	}
}

// SetTracer enables per-request tracing with connection timings.
func (s *RESTSource) SetTracer(t Tracer) {
	s.tracer = t
}

// Name returns the source name.
func (s *RESTSource) Name() string {
	return "rest"
}

// ArrayID returns the configured array ID.
func (s *RESTSource) ArrayID() string {
	return s.arrayID
}

// Health fetches the array health score.
func (s *RESTSource) Health(ctx context.Context) (*check.HealthSnapshot, error) {
	path := fmt.Sprintf("/system/symmetrix/%s/health", url.PathEscape(s.arrayID))
	body, err := s.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeHealth(body)
}

// Capacity fetches SRP capacity.
func (s *RESTSource) Capacity(ctx context.Context, srpID string) (*check.CapacityMetrics, error) {
	path := fmt.Sprintf("/sloprovisioning/symmetrix/%s/srp/%s", url.PathEscape(s.arrayID), url.PathEscape(srpID))
	body, err := s.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeCapacity(body)
}

// AlertCount counts alerts raised on the array in [since, until].
func (s *RESTSource) AlertCount(ctx context.Context, since, until time.Time) (int, error) {
	q := url.Values{}
	q.Set("array", s.arrayID)
	q.Add("created_date_milliseconds", ">"+strconv.FormatInt(since.UnixMilli(), 10))
	q.Add("created_date_milliseconds", "<"+strconv.FormatInt(until.UnixMilli(), 10))

	body, err := s.get(ctx, "/system/alert", q)
	if err != nil {
		return 0, err
	}
	return DecodeAlertCount(body)
}

func (s *RESTSource) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req := s.client.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if s.tracer != nil {
		req.EnableTrace()
	}

	s.logger.WithField("path", path).Debug("GET")
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if s.tracer != nil {
		ti := resp.Request.TraceInfo()
		s.tracer.Trace("rest", "GET "+path, fmt.Sprintf(
			"status=%d bytes=%d dns=%v conn=%v tls=%v server=%v total=%v reused=%t",
			resp.StatusCode(), len(resp.Body()), ti.DNSLookup, ti.ConnTime,
			ti.TLSHandshake, ti.ServerTime, ti.TotalTime, ti.IsConnReused))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("GET %s: %w", path, ErrNoData)
	}
	return resp.Body(), nil
}

var _ Source = (*RESTSource)(nil)
