package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// HTTPSource downloads historical daily bars from an OHLC endpoint that
// serves the same date,open,high,low,close CSV format as local files.
// Calls go through a rate limiter and a circuit breaker so a flaky or
// throttling data provider degrades the import instead of hammering it.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// HTTPSourceSettings configures the download client.
type HTTPSourceSettings struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
}

// NewHTTPSource creates a download client with sensible defaults: a 30s
// request timeout, 2 req/s, and a breaker that opens after a 60% failure
// ratio over at least 5 requests.
func NewHTTPSource(settings HTTPSourceSettings, logger *logrus.Logger) (*HTTPSource, error) {
	if _, err := url.Parse(settings.BaseURL); err != nil || settings.BaseURL == "" {
		return nil, fmt.Errorf("invalid bar source URL %q", settings.BaseURL)
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.RequestsPerSec <= 0 {
		settings.RequestsPerSec = 2
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "BarSourceCircuitBreaker",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).
				Warn("bar source circuit breaker state changed")
		},
	})

	return &HTTPSource{
		baseURL: settings.BaseURL,
		client:  &http.Client{Timeout: settings.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(settings.RequestsPerSec), 1),
		logger:  logger,
	}, nil
}

// Bars implements Source.
func (h *HTTPSource) Bars(ctx context.Context, start, end time.Time) ([]models.PriceBar, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	res, err := h.breaker.Execute(func() (interface{}, error) {
		return h.fetch(ctx, start, end)
	})
	if err != nil {
		return nil, err
	}
	bars, ok := res.([]models.PriceBar)
	if !ok {
		return nil, fmt.Errorf("bar source: unexpected result type")
	}
	return bars, nil
}

func (h *HTTPSource) fetch(ctx context.Context, start, end time.Time) ([]models.PriceBar, error) {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bar source URL: %w", err)
	}
	q := u.Query()
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building bar request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	h.logger.WithField("url", u.String()).Debug("downloading bars")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bar source returned status %d", resp.StatusCode)
	}

	bars, err := parseBars(resp.Body, start, end)
	if err != nil {
		return nil, fmt.Errorf("parsing bar response: %w", err)
	}
	return bars, nil
}
