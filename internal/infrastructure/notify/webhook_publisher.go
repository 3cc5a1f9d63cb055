package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
	"github.com/riskibarqy/user-profile-svc/internal/platform/resilience"
)

type WebhookPublisherConfig struct {
	Endpoint         string
	Token            string
	Timeout          time.Duration
	Workers          int
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMax      int
}

// WebhookPublisher delivers profile change events to a configured endpoint.
// Dispatch is asynchronous on a bounded worker pool; delivery failures are
// logged and counted against a circuit breaker, never surfaced to the
// mutation path.
type WebhookPublisher struct {
	client   *fasthttp.Client
	endpoint string
	token    string
	timeout  time.Duration
	pool     *ants.Pool
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
	inflight sync.WaitGroup
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *logging.Logger) (*WebhookPublisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, crerr.New("webhook endpoint is required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, crerr.Newf("webhook endpoint %q must be http(s)", endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create webhook worker pool: %w", err)
	}

	return &WebhookPublisher{
		client:   &fasthttp.Client{Name: "user-profile-svc"},
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		timeout:  timeout,
		pool:     pool,
		breaker:  resilience.NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout, cfg.HalfOpenMax),
		logger:   logger,
	}, nil
}

// Publish enqueues event for delivery. It returns an error only when the
// event could not be queued (pool saturated or breaker open).
func (p *WebhookPublisher) Publish(ctx context.Context, event profile.ChangeEvent) error {
	if err := p.breaker.Allow(); err != nil {
		p.logger.WarnContext(ctx, "webhook circuit breaker rejected event",
			"profile_id", event.ProfileID, "kind", string(event.Kind), "state", string(p.breaker.State()))
		return fmt.Errorf("webhook unavailable: %w", err)
	}

	p.inflight.Add(1)
	submitErr := p.pool.Submit(func() {
		defer p.inflight.Done()
		if err := p.send(event); err != nil {
			p.breaker.RecordFailure()
			p.logger.Warn("webhook delivery failed",
				"profile_id", event.ProfileID, "kind", string(event.Kind), "error", err)
			return
		}
		p.breaker.RecordSuccess()
	})
	if submitErr != nil {
		p.inflight.Done()
		// The event is dropped, and the breaker must see an outcome for the
		// slot Allow handed out or a half-open probe would leak forever.
		p.breaker.RecordFailure()
		return fmt.Errorf("enqueue webhook event: %w", submitErr)
	}

	return nil
}

func (p *WebhookPublisher) send(event profile.ChangeEvent) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return crerr.Wrap(err, "encode webhook payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(buf.B)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return crerr.Wrap(err, "post webhook")
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return crerr.Newf("webhook endpoint returned status %d", code)
	}

	return nil
}

// Close drains in-flight deliveries and releases the worker pool.
func (p *WebhookPublisher) Close() {
	p.inflight.Wait()
	p.pool.Release()
}
