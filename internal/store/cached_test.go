package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/accounts-cli/internal/model"
)

// countingStore counts calls through to each query method and can be told
// to fail, for observing cache hits and error pass-through.
type countingStore struct {
	calls atomic.Int64
	fail  atomic.Bool
	delay time.Duration
}

func (f *countingStore) rowset() (*model.Rowset, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, eris.New("store down")
	}
	rs := model.NewRowset([]string{"a"})
	rs.Rows = append(rs.Rows, map[string]any{"a": 1})
	return rs, nil
}

func (f *countingStore) ActivitiesByAccount(context.Context, string) (*model.Rowset, error) {
	return f.rowset()
}
func (f *countingStore) ActivitiesByAccounts(context.Context, []string) (*model.Rowset, error) {
	return f.rowset()
}
func (f *countingStore) FirmographicsByIdentifiers(context.Context, []string) (*model.Rowset, error) {
	return f.rowset()
}
func (f *countingStore) ContactsByIdentifiers(context.Context, []string) (*model.Rowset, error) {
	return f.rowset()
}
func (f *countingStore) Ping(context.Context) error    { return nil }
func (f *countingStore) Migrate(context.Context) error { return nil }
func (f *countingStore) Close() error                  { return nil }

func TestCached_HitAndMiss(t *testing.T) {
	inner := &countingStore{}
	c := NewCached(inner)
	ctx := context.Background()

	first, err := c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	second, err := c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())

	// A different argument is a different key.
	_, err = c.ActivitiesByAccount(ctx, "Globex")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCached_MethodsKeyedSeparately(t *testing.T) {
	inner := &countingStore{}
	c := NewCached(inner)
	ctx := context.Background()

	_, err := c.FirmographicsByIdentifiers(ctx, []string{"ACME1"})
	require.NoError(t, err)
	_, err = c.ContactsByIdentifiers(ctx, []string{"ACME1"})
	require.NoError(t, err)

	// Same arguments, different methods: both reach the store.
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCached_ErrorsNotCached(t *testing.T) {
	inner := &countingStore{}
	inner.fail.Store(true)
	c := NewCached(inner)
	ctx := context.Background()

	_, err := c.ActivitiesByAccount(ctx, "Acme Corp")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	// Recovery: the next call retries the store and the result is cached.
	inner.fail.Store(false)
	_, err = c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCached_Invalidate(t *testing.T) {
	inner := &countingStore{}
	c := NewCached(inner)
	ctx := context.Background()

	_, err := c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	_, err = c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCached_ConcurrentMissesCollapse(t *testing.T) {
	inner := &countingStore{delay: 20 * time.Millisecond}
	c := NewCached(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ActivitiesByAccount(ctx, "Acme Corp")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCached_ClockInjection(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inner := &countingStore{}
	c := NewCached(inner, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	_, err := c.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)

	c.mu.RLock()
	defer c.mu.RUnlock()
	require.Len(t, c.entries, 1)
	for _, e := range c.entries {
		assert.Equal(t, fixed, e.storedAt)
	}
}

func TestCached_PassThroughOps(t *testing.T) {
	inner := &countingStore{}
	c := NewCached(inner)

	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Migrate(context.Background()))
	assert.NoError(t, c.Close())
	assert.Equal(t, int64(0), inner.calls.Load())
}
