package travel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPProvider asks an external routing service for drive times:
//
//	GET {BaseURL}/v1/duration?origin=...&destination=...  ->  {"minutes": 17}
//
// Calls are throttled by a token bucket shared by every caller.
type HTTPProvider struct {
	BaseURL string
	HTTP    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewHTTPProvider builds a provider limited to rps requests per second with
// the given burst. rps <= 0 disables throttling.
func NewHTTPProvider(baseURL string, rps float64, burst int, timeout time.Duration, logger zerolog.Logger) *HTTPProvider {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		limiter: lim,
		logger:  logger.With().Str("component", "travel_http").Logger(),
	}
}

type durationResponse struct {
	Minutes *int `json:"minutes"`
}

func (p *HTTPProvider) TravelMinutes(ctx context.Context, origin, destination string) (int, bool) {
	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Debug().Err(err).Msg("rate limiter wait aborted")
		return 0, false
	}
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/v1/duration?"+q.Encode(), nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.HTTP.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Msg("duration request failed")
		return 0, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Debug().Int("status", resp.StatusCode).Msg("duration request rejected")
		return 0, false
	}
	var body durationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Minutes == nil || *body.Minutes < 0 {
		return 0, false
	}
	return *body.Minutes, true
}
