package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"ratiolens/shared"
)

const (
	// BaseURL is the default trading terminal gateway endpoint.
	BaseURL = "http://127.0.0.1:6542"

	// requestTimeout bounds individual gateway requests.
	requestTimeout = time.Second * 10
	// maxRetries bounds transient failure retries per request.
	maxRetries = 3

	// Gateway error codes.
	codeSymbolNotFound = "symbol_not_found"
	codeNoData         = "no_data"
)

// TerminalConfig represents the configuration for the terminal gateway client.
type TerminalConfig struct {
	// BaseURL is the terminal gateway endpoint.
	BaseURL string
	// AuthToken is the gateway access token, optional.
	AuthToken string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *TerminalConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("terminal gateway base url cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// TerminalClient represents a trading terminal gateway client. The gateway
// owns the terminal connection; the client holds an explicitly acquired
// session handle which must be released with Close.
type TerminalClient struct {
	cfg       *TerminalConfig
	httpc     http.Client
	buf       *bytes.Buffer
	sessionID string
}

// Ensure the terminal client implements the BarFetcher interface.
var _ shared.BarFetcher = (*TerminalClient)(nil)

// NewTerminalClient instantiates a new terminal gateway client.
func NewTerminalClient(cfg *TerminalConfig) (*TerminalClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &TerminalClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: requestTimeout},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the gateway api.
func (c *TerminalClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	if params != "" {
		c.buf.WriteString("?")
		c.buf.WriteString(params)
	}
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// do executes the provided request against the gateway, retrying transient
// failures with exponential backoff. The response body is returned for
// status codes below 500; gateway-side failures are retried.
func (c *TerminalClient) do(ctx context.Context, method string, url string) (int, []byte, error) {
	var status int
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		if c.cfg.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
		}
		if c.sessionID != "" {
			req.Header.Set("X-Session-ID", c.sessionID)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", url, err)
		}

		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}

		status = resp.StatusCode
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("gateway returned status %d for %s", status, url)
		}

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	err := backoff.Retry(operation, policy)
	if err != nil {
		return 0, nil, err
	}

	return status, body, nil
}

// Connect acquires a terminal session from the gateway. The session must be
// released with Close once the run completes.
func (c *TerminalClient) Connect(ctx context.Context) error {
	_, body, err := c.do(ctx, http.MethodPost, c.formURL("/session", ""))
	if err != nil {
		return fmt.Errorf("acquiring terminal session: %w", err)
	}

	sessionID := gjson.GetBytes(body, "session_id").String()
	if sessionID == "" {
		return fmt.Errorf("acquiring terminal session: gateway response missing session id")
	}

	c.sessionID = sessionID
	c.cfg.Logger.Info().Str("session", sessionID).Msg("terminal session acquired")

	return nil
}

// Close releases the terminal session held by the client.
func (c *TerminalClient) Close(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}

	_, _, err := c.do(ctx, http.MethodDelete, c.formURL("/session/"+c.sessionID, ""))
	if err != nil {
		return fmt.Errorf("releasing terminal session: %w", err)
	}

	c.cfg.Logger.Info().Str("session", c.sessionID).Msg("terminal session released")
	c.sessionID = ""

	return nil
}

// ParseBars parses bars from the provided json data.
func (c *TerminalClient) ParseBars(data []gjson.Result) []shared.Bar {
	bars := make([]shared.Bar, 0, len(data))

	for idx := range data {
		var bar shared.Bar

		bar.Timestamp = time.Unix(data[idx].Get("time").Int(), 0).UTC()
		bar.Open = data[idx].Get("open").Float()
		bar.High = data[idx].Get("high").Float()
		bar.Low = data[idx].Get("low").Float()
		bar.Close = data[idx].Get("close").Float()
		bar.TickVolume = data[idx].Get("tick_volume").Int()
		bar.Spread = data[idx].Get("spread").Int()
		bar.RealVolume = data[idx].Get("real_volume").Int()

		bars = append(bars, bar)
	}

	return bars
}

// normalizeBars sorts the provided bars ascending by timestamp, drops repeated
// timestamps keeping the first occurrence, and clamps the result to the
// provided range.
func normalizeBars(bars []shared.Bar, start time.Time, end time.Time) []shared.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	normalized := make([]shared.Bar, 0, len(bars))
	var last time.Time
	for idx := range bars {
		ts := bars[idx].Timestamp
		if ts.Before(start) || ts.After(end) {
			continue
		}
		if len(normalized) > 0 && ts.Equal(last) {
			continue
		}

		normalized = append(normalized, bars[idx])
		last = ts
	}

	return normalized
}

// FetchBars fetches historical bars for the provided symbol and timeframe,
// restricted to the provided utc time range.
func (c *TerminalClient) FetchBars(ctx context.Context, symbol string, timeframe shared.Timeframe, start time.Time, end time.Time) (*shared.BarSeries, error) {
	const ratesPath = "/rates"

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("timeframe", timeframe.String())
	params.Add("from", fmt.Sprintf("%d", start.UTC().Unix()))
	params.Add("to", fmt.Sprintf("%d", end.UTC().Unix()))

	status, body, err := c.do(ctx, http.MethodGet, c.formURL(ratesPath, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fetching %s bars (%s): %w", symbol, timeframe.String(), err)
	}

	if status != http.StatusOK {
		code := gjson.GetBytes(body, "error").String()
		switch code {
		case codeSymbolNotFound:
			return nil, fmt.Errorf("%w: %s", shared.ErrSymbolUnavailable, symbol)
		case codeNoData:
			return nil, fmt.Errorf("%w: %s (%s) in range %s - %s", shared.ErrNoData, symbol,
				timeframe.String(), start.UTC().Format(shared.DateLayout), end.UTC().Format(shared.DateLayout))
		default:
			return nil, fmt.Errorf("fetching %s bars: gateway returned status %d: %s",
				symbol, status, code)
		}
	}

	data := gjson.GetBytes(body, "bars").Array()
	bars := normalizeBars(c.ParseBars(data), start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s (%s) in range %s - %s", shared.ErrNoData, symbol,
			timeframe.String(), start.UTC().Format(shared.DateLayout), end.UTC().Format(shared.DateLayout))
	}

	c.cfg.Logger.Debug().Str("symbol", symbol).Str("timeframe", timeframe.String()).
		Int("bars", len(bars)).Msg("fetched historical bars")

	return shared.NewBarSeries(symbol, timeframe, bars), nil
}
