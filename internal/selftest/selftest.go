// Package selftest exercises each backend of the chat assistant and reports which
// ones work.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go-audit-insights/internal/rag"
)

const (
	probeText  = "This is a test query"
	probeQuery = "What transactions exist?"
)

// Check is the outcome of one probe.
type Check struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Detail   string        `json:"detail"`
	Duration time.Duration `json:"duration"`
}

// Result lists checks in the order they ran.
type Result []Check

// OK reports whether every check passed.
func (r Result) OK() bool {
	for _, c := range r {
		if !c.Passed {
			return false
		}
	}
	return len(r) > 0
}

// Availability reports whether a language model can be reached.
type Availability interface {
	Available(ctx context.Context) bool
}

// Counter reports how many documents a vector store holds.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Deps are the backends under test.
type Deps struct {
	Embedder rag.Embedder
	Vectors  Counter
	LLM      Availability
	Pipeline *rag.Pipeline
}

// Run executes every probe. Later probes still run when earlier ones fail.
func Run(ctx context.Context, d Deps) Result {
	probes := []struct {
		name string
		fn   func(context.Context) (string, error)
	}{
		{"Embedding Model", func(ctx context.Context) (string, error) {
			vec, err := d.Embedder.Embed(ctx, probeText)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("dimension %d", len(vec)), nil
		}},
		{"Vector Store", func(ctx context.Context) (string, error) {
			n, err := d.Vectors.Count(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d documents", n), nil
		}},
		{"LLM Connection", func(ctx context.Context) (string, error) {
			if !d.LLM.Available(ctx) {
				return "", errors.New("model not available, generation will fail")
			}
			return "available", nil
		}},
		{"Document Retrieval", func(ctx context.Context) (string, error) {
			hits, err := d.Pipeline.Retrieve(ctx, "test query", 3, nil)
			if err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return "0 documents retrieved", nil
			}
			return fmt.Sprintf("%d documents retrieved, top %s score %.4f", len(hits), hits[0].ID, hits[0].Score), nil
		}},
		{"End-to-End Pipeline", func(ctx context.Context) (string, error) {
			verify := false
			ans, err := d.Pipeline.Answer(ctx, rag.Request{Query: probeQuery, K: 3, VerifyNumbers: &verify})
			if err != nil {
				return "", err
			}
			if ans.Error != "" {
				return "", errors.New(ans.Error)
			}
			return fmt.Sprintf("answer %d chars, %d sources", len(ans.Answer), len(ans.Sources)), nil
		}},
	}

	out := make(Result, 0, len(probes))
	for _, p := range probes {
		start := time.Now()
		detail, err := p.fn(ctx)
		c := Check{Name: p.name, Passed: err == nil, Detail: detail, Duration: time.Since(start)}
		if err != nil {
			c.Detail = err.Error()
		}
		out = append(out, c)
	}
	return out
}

// Print writes a PASS/FAIL table.
func Print(w io.Writer, r Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Self-test results")
	fmt.Fprintln(w, rule)
	for _, c := range r {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-24s %-4s  %s\n", c.Name, status, c.Detail)
	}
	fmt.Fprintln(w, rule)
	if r.OK() {
		fmt.Fprintln(w, "All checks passed.")
	} else {
		fmt.Fprintln(w, "Some checks failed.")
	}
}
