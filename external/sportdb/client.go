package sportdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/league"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/match"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/standing"
	"github.com/riskibarqy/volleyball-dashboard/internal/domain/team"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/volleyball-dashboard/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL   = "https://api.sportdb.dev"
	DefaultUserAgent = "VolleyballDashboard/1.0"
	DefaultTimeout   = 30 * time.Second

	maxResponseBytes = 6 << 20
	fixturePageLimit = 5
	resultPageLimit  = 3
	matchWindow      = 14 * 24 * time.Hour
)

var errSportDBTransient = crerr.New("sportdb transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// Logos receives fixture logos and fills the logos missing from other feeds. Optional.
	Logos team.LogoRegistry
	Clock clockwork.Clock
}

// Client reads volleyball standings and matches from the sportdb Flashscore proxy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries int
	// bounds one coalesced request including retries and backoff
	flightTimeout time.Duration
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
	logos         team.LogoRegistry
	clock         clockwork.Clock
	flight        singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	maxRetries := max(cfg.MaxRetries, 0)
	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		userAgent:     userAgent,
		maxRetries:    maxRetries,
		flightTimeout: requestBudget(timeout, maxRetries),
		logger:        logger.Named("sportdb"),
		breaker:       resilience.NewCircuitBreaker(cfg.CircuitBreaker, clock),
		logos:         cfg.Logos,
		clock:         clock,
	}
}

func (c *Client) Standings(ctx context.Context, l league.League) ([]standing.Standing, error) {
	var rows []standingDto
	if err := c.getJSON(ctx, l.StandingsEndpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch standings league=%s: %w", l.ID, err)
	}
	return mapStandings(rows, c.logos), nil
}

func (c *Client) GroupedStandings(ctx context.Context, l league.League) ([]standing.Group, error) {
	var rows []groupStandingDto
	if err := c.getJSON(ctx, l.StandingsEndpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch grouped standings league=%s: %w", l.ID, err)
	}
	return mapGroups(rows, c.logos), nil
}

// Fixtures pages forward until the feed reaches past the match window, registers every team
// logo it sees and returns the matches within 14 days either side of now, earliest first.
func (c *Client) Fixtures(ctx context.Context, l league.League) ([]match.Match, error) {
	now := c.clock.Now().UTC()
	horizon := now.Add(matchWindow)

	rows, err := c.fetchPages(ctx, l.FixturesEndpoint, fixturePageLimit, func(all []fixtureDto) bool {
		latest, ok := startBounds(all)
		return ok && latest.max.After(horizon)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures league=%s: %w", l.ID, err)
	}

	if c.logos != nil {
		c.logos.SetLogos(fixtureLogos(rows))
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		m := mapMatch(row, nil)
		if m.StartTime.Before(now.Add(-matchWindow)) || m.StartTime.After(horizon) {
			continue
		}
		out = append(out, m)
	}
	match.SortByStart(out, false)
	return out, nil
}

// Results pages back until the feed reaches before the match window and returns the matches
// of the last 14 days, latest first.
func (c *Client) Results(ctx context.Context, l league.League) ([]match.Match, error) {
	now := c.clock.Now().UTC()
	cutoff := now.Add(-matchWindow)

	rows, err := c.fetchPages(ctx, l.ResultsEndpoint, resultPageLimit, func(all []fixtureDto) bool {
		bounds, ok := startBounds(all)
		return ok && bounds.min.Before(cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch results league=%s: %w", l.ID, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		m := mapMatch(row, c.logos)
		if m.StartTime.Before(cutoff) || m.StartTime.After(now) {
			continue
		}
		out = append(out, m)
	}
	match.SortByStart(out, true)
	return out, nil
}

func (c *Client) LiveMatches(ctx context.Context, l league.League) ([]match.Match, error) {
	var rows []fixtureDto
	if err := c.getJSON(ctx, l.LiveEndpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch live matches league=%s: %w", l.ID, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMatch(row, c.logos))
	}
	return out, nil
}

// fetchPages requests ?page=1..limit and stops early on an empty page or once done reports true.
func (c *Client) fetchPages(ctx context.Context, path string, limit int, done func([]fixtureDto) bool) ([]fixtureDto, error) {
	all := make([]fixtureDto, 0, 64)
	for page := 1; page <= limit; page++ {
		var rows []fixtureDto
		query := url.Values{"page": []string{strconv.Itoa(page)}}
		if err := c.getJSON(ctx, path, query, &rows); err != nil {
			return nil, fmt.Errorf("page=%d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}
		all = append(all, rows...)
		if done(all) {
			break
		}
	}
	return all, nil
}

type timeBounds struct {
	min time.Time
	max time.Time
}

func startBounds(rows []fixtureDto) (timeBounds, bool) {
	var (
		bounds timeBounds
		found  bool
	)
	for _, row := range rows {
		start, ok := parseUnixSeconds(row.StartTime)
		if !ok {
			continue
		}
		if !found || start.Before(bounds.min) {
			bounds.min = start
		}
		if !found || start.After(bounds.max) {
			bounds.max = start
		}
		found = true
	}
	return bounds, found
}

// getJSON decodes the response for path into target. Every error it returns is marked
// usecase.ErrDataSource.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "sportdb circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return crerr.Mark(
			crerr.Mark(crerr.Wrap(err, "sportdb is temporarily unavailable"), usecase.ErrDependencyUnavailable),
			usecase.ErrDataSource,
		)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Callers joining the flight share one request, so it must not die with the first caller.
	results := c.flight.DoChan(fullURL, func() (any, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		raw, reqErr := c.executeRequest(reqCtx, fullURL)
		c.breaker.Record(reqErr, isCircuitFailure)
		return raw, reqErr
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return crerr.Mark(crerr.Wrapf(ctx.Err(), "wait for sportdb path=%s", path), usecase.ErrDataSource)
	case res = <-results:
	}
	if res.Err != nil {
		return crerr.Mark(res.Err, usecase.ErrDataSource)
	}

	raw, ok := res.Val.([]byte)
	if !ok {
		return crerr.Mark(crerr.Newf("unexpected response payload type %T", out), usecase.ErrDataSource)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "decode sportdb payload path=%s", path), usecase.ErrDataSource)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, retry, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retry || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * time.Second
		timer := c.clock.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.Chan():
		}
	}

	c.logger.WarnContext(ctx, "sportdb request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, crerr.Mark(crerr.Wrap(err, "send request"), errSportDBTransient)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, true, crerr.Mark(crerr.Wrap(err, "read response body"), errSportDBTransient)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return slices.Clone(buf.B), false, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, true, crerr.Mark(
			crerr.Newf("sportdb status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B)),
			errSportDBTransient,
		)
	}
	return nil, false, crerr.Newf("sportdb status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
}

// requestBudget covers every attempt plus the linear backoff between them.
func requestBudget(timeout time.Duration, maxRetries int) time.Duration {
	attempts := time.Duration(maxRetries + 1)
	backoff := time.Duration(maxRetries*(maxRetries+1)/2) * time.Second
	return attempts*timeout + backoff
}

// isCircuitFailure keeps client errors such as a 404 for a wrong endpoint from tripping the breaker.
func isCircuitFailure(err error) bool {
	return crerr.Is(err, errSportDBTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

var _ usecase.DataSource = (*Client)(nil)
