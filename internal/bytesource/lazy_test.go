package bytesource_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/bytesource"
)

type closeCounter struct {
	*bytesource.MapSource
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestLazySource_DefersConstruction(t *testing.T) {
	var calls atomic.Int32
	delegate := &closeCounter{MapSource: bytesource.NewMapSource(map[string][]byte{"a/B": []byte("B")}, bytesource.SlashName)}
	lazy := bytesource.NewLazySource(func() (bytesource.Source, error) {
		calls.Add(1)
		return delegate, nil
	})

	assert.False(t, lazy.Initialized())
	assert.Equal(t, int32(0), calls.Load())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := lazy.Get("a/B")
			assert.NoError(t, err)
			assert.Equal(t, "B", string(data))
		}()
	}
	wg.Wait()

	assert.True(t, lazy.Initialized())
	assert.Equal(t, int32(1), calls.Load())

	entries, err := lazy.Enumerate()
	require.NoError(t, err)
	assert.Contains(t, entries, "a/B")

	require.NoError(t, lazy.Close())
	require.NoError(t, lazy.Close())
	assert.Equal(t, 1, delegate.closes)

	_, err = lazy.Get("a/B")
	assert.ErrorIs(t, err, bytesource.ErrClosed)
}

func TestLazySource_FactoryError(t *testing.T) {
	boom := errors.New("cannot open archive")
	calls := 0
	lazy := bytesource.NewLazySource(func() (bytesource.Source, error) {
		calls++
		return nil, boom
	})

	_, err := lazy.Get("a/B")
	assert.ErrorIs(t, err, boom)
	_, err = lazy.Get("a/B")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, lazy.Close())
}

func TestLazySource_CloseBeforeUse(t *testing.T) {
	lazy := bytesource.NewLazySource(func() (bytesource.Source, error) {
		t.Fatal("factory must not run after close")
		return nil, nil
	})
	require.NoError(t, lazy.Close())

	_, err := lazy.Get("a/B")
	assert.ErrorIs(t, err, bytesource.ErrClosed)
}
