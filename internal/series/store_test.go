package series

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CopiesOnSave(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	raw := []byte(`{"overall":1}`)
	s.Save(context.Background(), "k", raw)
	raw[2] = 'X'

	got, ok := s.Load(context.Background(), "k")
	require.True(t, ok)
	assert.Equal(t, `{"overall":1}`, string(got))

	_, ok = s.Load(context.Background(), "missing")
	assert.False(t, ok)
}

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	s, err := NewRedisStore(ctx, "redis://"+mr.Addr(), time.Minute, nil)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Load(ctx, "risk/kpis")
	assert.False(t, ok)

	s.Save(ctx, "risk/kpis", []byte(`{"overallRiskScore":42}`))
	got, ok := s.Load(ctx, "risk/kpis")
	require.True(t, ok)
	assert.JSONEq(t, `{"overallRiskScore":42}`, string(got))
	assert.True(t, mr.Exists("audit-insights:series:risk/kpis"))

	mr.FastForward(2 * time.Minute)
	_, ok = s.Load(ctx, "risk/kpis")
	assert.False(t, ok)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", time.Minute, nil)
	assert.Error(t, err)
}
