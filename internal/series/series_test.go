package series

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kpis struct {
	Overall  int `json:"overall"`
	Training int `json:"training"`
}

var kpiSeries = Series[kpis]{
	Name:     "kpis",
	Path:     "/api/v1/kpis",
	Query:    []string{"environment"},
	Fallback: kpis{Overall: 89, Training: 85},
}

var listSeries = Series[[]string]{
	Name:     "items",
	Path:     "/api/v1/items",
	Query:    []string{"environment", "limit"},
	Fallback: []string{"fallback-a", "fallback-b"},
}

func envelope(t *testing.T, w http.ResponseWriter, success bool, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"success": success}
	if data != nil {
		body["data"] = data
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestMerge_UnreachableOriginKeepsFallback(t *testing.T) {
	f := NewFetcher("http://127.0.0.1:1", 200*time.Millisecond)

	var k kpis
	var items []string
	report := f.Merge(context.Background(), "compliance", Params{Environment: "prod"},
		Bind(kpiSeries, &k), Bind(listSeries, &items))

	assert.Equal(t, kpis{Overall: 89, Training: 85}, k)
	assert.Equal(t, []string{"fallback-a", "fallback-b"}, items)
	assert.True(t, report.Degraded)
	for _, o := range report.Outcomes {
		assert.Equal(t, SourceFallback, o.Source)
		assert.ErrorIs(t, o.Err, ErrTransport)
	}
}

// slowServer answers only after the client has given up.
func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			envelope(t, w, true, kpis{Overall: 1, Training: 1})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMerge_TimeoutKeepsFallback(t *testing.T) {
	srv := slowServer(t)
	f := NewFetcher(srv.URL, 50*time.Millisecond)

	var k kpis
	start := time.Now()
	report := f.Merge(context.Background(), "compliance", Params{Environment: "prod"}, Bind(kpiSeries, &k))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, kpiSeries.Fallback, k)
	assert.True(t, report.Degraded)
	o, ok := report.Outcome("kpis")
	require.True(t, ok)
	assert.Equal(t, SourceFallback, o.Source)
	assert.ErrorIs(t, o.Err, ErrTransport)
}

func TestMerge_LastGoodSurvivesTimeout(t *testing.T) {
	var slow atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
		envelope(t, w, true, kpis{Overall: 91, Training: 88})
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, 100*time.Millisecond, WithStore(NewMemoryStore(time.Minute)))

	var first kpis
	f.Merge(context.Background(), "p", Params{Environment: "prod"}, Bind(kpiSeries, &first))
	require.Equal(t, kpis{Overall: 91, Training: 88}, first)

	slow.Store(true)
	var second kpis
	report := f.Merge(context.Background(), "p", Params{Environment: "prod"}, Bind(kpiSeries, &second))

	assert.Equal(t, first, second)
	o, _ := report.Outcome("kpis")
	assert.Equal(t, SourceLastGood, o.Source)
	assert.ErrorIs(t, o.Err, ErrTransport)
}

func TestMerge_SuccessReplacesWithExactPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/kpis":
			assert.Equal(t, "prod", r.URL.Query().Get("environment"))
			envelope(t, w, true, kpis{Overall: 72, Training: 64})
		case "/api/v1/items":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			envelope(t, w, true, []string{"x"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	var k kpis
	var items []string
	report := f.Merge(context.Background(), "compliance", Params{Environment: "prod", Limit: 5},
		Bind(kpiSeries, &k), Bind(listSeries, &items))

	assert.Equal(t, kpis{Overall: 72, Training: 64}, k)
	assert.Equal(t, []string{"x"}, items)
	assert.False(t, report.Degraded)
}

func TestMerge_FailureTaxonomyKeepsFallback(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			want:    ErrUnsuccessful,
		},
		{
			name:    "success false",
			handler: func(w http.ResponseWriter, _ *http.Request) { envelope(t, w, false, kpis{Overall: 1}) },
			want:    ErrUnsuccessful,
		},
		{
			name:    "missing data",
			handler: func(w http.ResponseWriter, _ *http.Request) { envelope(t, w, true, nil) },
			want:    ErrEmptyPayload,
		},
		{
			name:    "empty object",
			handler: func(w http.ResponseWriter, _ *http.Request) { envelope(t, w, true, map[string]any{}) },
			want:    ErrEmptyPayload,
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) },
			want:    ErrInvalidPayload,
		},
		{
			name:    "wrong shape",
			handler: func(w http.ResponseWriter, _ *http.Request) { envelope(t, w, true, []int{1, 2}) },
			want:    ErrInvalidPayload,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			var k kpis
			report := NewFetcher(srv.URL, time.Second).Merge(context.Background(), "p", Params{}, Bind(kpiSeries, &k))

			assert.Equal(t, kpiSeries.Fallback, k)
			o, ok := report.Outcome("kpis")
			require.True(t, ok)
			assert.Equal(t, SourceFallback, o.Source)
			assert.ErrorIs(t, o.Err, tc.want)
		})
	}
}

func TestMerge_PartialSuccessIsIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/items" {
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		envelope(t, w, true, kpis{Overall: 50, Training: 51})
	}))
	defer srv.Close()

	var k kpis
	var items []string
	report := NewFetcher(srv.URL, time.Second).Merge(context.Background(), "p", Params{},
		Bind(kpiSeries, &k), Bind(listSeries, &items))

	assert.Equal(t, kpis{Overall: 50, Training: 51}, k)
	assert.Equal(t, listSeries.Fallback, items)
	assert.True(t, report.Degraded)

	o, _ := report.Outcome("kpis")
	assert.Equal(t, SourceRemote, o.Source)
	o, _ = report.Outcome("items")
	assert.Equal(t, SourceFallback, o.Source)
}

func TestMerge_RequestsAreConcurrent(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		envelope(t, w, true, []string{r.URL.Path})
	}))
	defer srv.Close()

	slots := make([][]string, 4)
	bindings := make([]Binding, 0, len(slots))
	for i := range slots {
		s := Series[[]string]{Name: string(rune('a' + i)), Path: "/s/" + string(rune('a'+i)), Fallback: []string{"fb"}}
		bindings = append(bindings, Bind(s, &slots[i]))
	}

	NewFetcher(srv.URL, time.Second).Merge(context.Background(), "p", Params{}, bindings...)

	assert.Equal(t, int32(len(slots)), atomic.LoadInt32(&peak))
	for i := range slots {
		assert.Equal(t, []string{"/s/" + string(rune('a'+i))}, slots[i])
	}
}

func TestMerge_LastGoodSurvivesLaterFailure(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		envelope(t, w, true, kpis{Overall: 93, Training: 90})
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second, WithStore(NewMemoryStore(time.Minute)))

	var first kpis
	f.Merge(context.Background(), "p", Params{Environment: "prod"}, Bind(kpiSeries, &first))
	require.Equal(t, kpis{Overall: 93, Training: 90}, first)

	healthy.Store(false)
	var second kpis
	report := f.Merge(context.Background(), "p", Params{Environment: "prod"}, Bind(kpiSeries, &second))

	assert.Equal(t, first, second)
	o, _ := report.Outcome("kpis")
	assert.Equal(t, SourceLastGood, o.Source)

	var otherEnv kpis
	f.Merge(context.Background(), "p", Params{Environment: "staging"}, Bind(kpiSeries, &otherEnv))
	assert.Equal(t, kpiSeries.Fallback, otherEnv)
}

func TestMerge_FallbackIsNotShared(t *testing.T) {
	f := NewFetcher("http://127.0.0.1:1", 100*time.Millisecond)

	var items []string
	f.Merge(context.Background(), "p", Params{}, Bind(listSeries, &items))
	items[0] = "mutated"

	var again []string
	f.Merge(context.Background(), "p", Params{}, Bind(listSeries, &again))
	assert.Equal(t, "fallback-a", again[0])
	assert.Equal(t, "fallback-a", listSeries.Fallback[0])
}

func TestMerge_ObserverSeesEverySeries(t *testing.T) {
	var calls int32
	f := NewFetcher("http://127.0.0.1:1", 100*time.Millisecond, WithObserver(func(page, name string, source Source, _ time.Duration) {
		assert.Equal(t, "risk", page)
		assert.Equal(t, SourceFallback, source)
		atomic.AddInt32(&calls, 1)
	}))

	var k kpis
	var items []string
	f.Merge(context.Background(), "risk", Params{}, Bind(kpiSeries, &k), Bind(listSeries, &items))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, "[]", "[ ]", "{ }"} {
		assert.True(t, isEmpty(json.RawMessage(raw)), raw)
	}
	for _, raw := range []string{"0", `"x"`, "[1]", `{"a":1}`, "false"} {
		assert.False(t, isEmpty(json.RawMessage(raw)), raw)
	}
}
