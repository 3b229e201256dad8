package reveal

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch <-chan string) []string {
	var frames []string
	for f := range ch {
		frames = append(frames, f)
	}
	return frames
}

func TestReveal_GrowsOneCharacterAtATime(t *testing.T) {
	text := "Total exposure: €2.4M ✓"
	n := utf8.RuneCountInString(text)

	frames := collect(Reveal(context.Background(), text, time.Millisecond))

	require.Len(t, frames, n)
	assert.Equal(t, text, frames[len(frames)-1])
	for i, f := range frames {
		count := utf8.RuneCountInString(f)
		assert.Equal(t, i+1, count)
		assert.LessOrEqual(t, count, n)
		assert.True(t, utf8.ValidString(f))
		assert.True(t, strings.HasPrefix(text, f), f)
	}
}

func TestReveal_EmptyText(t *testing.T) {
	assert.Equal(t, []string{""}, collect(Reveal(context.Background(), "", time.Millisecond)))
}

func TestReveal_CancelStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Reveal(ctx, "a fairly long answer that will not finish", 5*time.Millisecond)

	first, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "a", first)
	cancel()

	rest := collect(ch)
	assert.Less(t, len(rest), 5)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 30*time.Millisecond, Duration("abc", 10*time.Millisecond))
	assert.Equal(t, 2*DefaultInterval, Duration("hé", 0))
}
