// Package reveal animates an answer by showing a growing prefix of it, one
// character per tick.
package reveal

import (
	"context"
	"time"
)

// DefaultInterval is the tick used when the caller passes a non-positive interval.
const DefaultInterval = 20 * time.Millisecond

// Reveal emits the visible prefix of text after every tick, growing by one rune,
// and closes the channel once the full text has been emitted or ctx is done.
// Empty text emits a single empty frame.
func Reveal(ctx context.Context, text string, interval time.Duration) <-chan string {
	if interval <= 0 {
		interval = DefaultInterval
	}
	runes := []rune(text)
	out := make(chan string)

	go func() {
		defer close(out)
		if len(runes) == 0 {
			select {
			case out <- "":
			case <-ctx.Done():
			}
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for visible := 1; visible <= len(runes); visible++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case out <- string(runes[:visible]):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Duration is how long revealing text takes at interval.
func Duration(text string, interval time.Duration) time.Duration {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return time.Duration(len([]rune(text))) * interval
}
