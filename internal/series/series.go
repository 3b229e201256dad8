// Package series loads named dashboard data series from a remote origin and keeps
// the previously displayed value, or an embedded fallback, whenever a series cannot
// be fetched.
package series

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Every failure below results in the same action: the slot keeps its current value.
var (
	ErrTransport      = errors.New("transport failure")
	ErrUnsuccessful   = errors.New("unsuccessful response")
	ErrEmptyPayload   = errors.New("empty payload")
	ErrInvalidPayload = errors.New("invalid payload")
)

const maxBodyBytes = 8 << 20

// Envelope is the response contract of the data API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Params are the per-request query parameters a series may consume.
type Params struct {
	Environment string `json:"environment"`
	Limit       int    `json:"limit"`
	Months      int    `json:"months"`
}

func (p Params) values(keys []string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		switch k {
		case "environment":
			if p.Environment != "" {
				out.Set(k, p.Environment)
			}
		case "limit":
			if p.Limit > 0 {
				out.Set(k, strconv.Itoa(p.Limit))
			}
		case "months":
			if p.Months > 0 {
				out.Set(k, strconv.Itoa(p.Months))
			}
		}
	}
	return out
}

// Source tells where the value shown for a series came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceLastGood Source = "last_good"
	SourceFallback Source = "fallback"
)

// Series is one named chart or table data source: one endpoint, one embedded fallback.
type Series[T any] struct {
	Name     string
	Path     string
	Query    []string
	Fallback T
}

// Binding is a series attached to the slot that displays it.
type Binding interface {
	name() string
	path() string
	queryKeys() []string
	reset()
	accept(raw []byte) error
}

type binding[T any] struct {
	s   Series[T]
	dst *T
}

// Bind attaches s to dst. Merge writes into dst.
func Bind[T any](s Series[T], dst *T) Binding {
	return &binding[T]{s: s, dst: dst}
}

func (b *binding[T]) name() string        { return b.s.Name }
func (b *binding[T]) path() string        { return b.s.Path }
func (b *binding[T]) queryKeys() []string { return b.s.Query }

// reset copies the fallback into the slot so callers never share the embedded value.
func (b *binding[T]) reset() {
	raw, err := json.Marshal(b.s.Fallback)
	if err == nil {
		var v T
		if json.Unmarshal(raw, &v) == nil {
			*b.dst = v
			return
		}
	}
	*b.dst = b.s.Fallback
}

func (b *binding[T]) accept(raw []byte) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	*b.dst = v
	return nil
}

// Outcome reports how one series was resolved during a Merge.
type Outcome struct {
	Series    string `json:"series"`
	Source    Source `json:"source"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Err       error  `json:"-"`
}

// Report summarises one page load.
type Report struct {
	Page     string    `json:"page"`
	Outcomes []Outcome `json:"outcomes"`
	Degraded bool      `json:"degraded"`
}

// Outcome returns the outcome recorded for the named series.
func (r Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Series == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Observer is notified once per resolved series.
type Observer func(page, series string, source Source, latency time.Duration)

// Fetcher requests series from a fixed origin.
type Fetcher struct {
	origin   string
	client   *http.Client
	store    Store
	logger   *zap.Logger
	observer Observer
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithStore sets the last-good store. The default keeps nothing.
func WithStore(s Store) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.store = s
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver installs a per-series callback, used for metrics.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewFetcher creates a fetcher for origin with a fixed client timeout.
func NewFetcher(origin string, timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fetcher{
		origin: strings.TrimRight(strings.TrimSpace(origin), "/"),
		client: &http.Client{Timeout: timeout},
		store:  NopStore{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Origin returns the base URL series paths are resolved against.
func (f *Fetcher) Origin() string {
	return f.origin
}

// Get requests one series and unwraps the envelope.
func (f *Fetcher) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	target := f.origin + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUnsuccessful, resp.StatusCode, strings.TrimSpace(string(blob)))
	}

	var env Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
	}
	if isEmpty(env.Data) {
		return nil, ErrEmptyPayload
	}
	return env.Data, nil
}

// Merge resolves every binding for page. Each slot starts at its last-good value
// (or the fallback), then all endpoints are requested concurrently; a slot is
// replaced only by a successful, non-empty, decodable payload.
func (f *Fetcher) Merge(ctx context.Context, page string, params Params, bindings ...Binding) Report {
	outcomes := make([]Outcome, len(bindings))

	var g errgroup.Group
	for i, b := range bindings {
		query := params.values(b.queryKeys())
		key := storeKey(page, b.name(), query)

		outcomes[i] = Outcome{Series: b.name(), Source: SourceFallback}
		b.reset()
		if raw, ok := f.store.Load(ctx, key); ok {
			if err := b.accept(raw); err == nil {
				outcomes[i].Source = SourceLastGood
			}
		}

		g.Go(func() error {
			start := time.Now()
			raw, err := f.Get(ctx, b.path(), query)
			if err == nil {
				err = b.accept(raw)
			}
			latency := time.Since(start)
			outcomes[i].LatencyMS = latency.Milliseconds()
			if err != nil {
				outcomes[i].Err = err
				outcomes[i].Error = err.Error()
				f.logger.Debug("series fetch failed, keeping current value",
					zap.String("page", page),
					zap.String("series", b.name()),
					zap.String("kept", string(outcomes[i].Source)),
					zap.Error(err),
				)
			} else {
				outcomes[i].Source = SourceRemote
				f.store.Save(ctx, key, raw)
			}
			if f.observer != nil {
				f.observer(page, b.name(), outcomes[i].Source, latency)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Page: page, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Source != SourceRemote {
			report.Degraded = true
			break
		}
	}
	return report
}

func storeKey(page, name string, query url.Values) string {
	key := page + "/" + name
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

func isEmpty(raw json.RawMessage) bool {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return len(bytes.TrimSpace(raw)) == 0
	}
	switch buf.String() {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}
