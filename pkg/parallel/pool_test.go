package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		inputs  []int
	}{
		{name: "SingleWorker", workers: 1, inputs: []int{1, 2, 3}},
		{name: "MoreWorkersThanInputs", workers: 16, inputs: []int{4, 5}},
		{name: "DefaultWorkers", workers: 0, inputs: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{name: "Empty", workers: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, stats := Map(context.Background(), tt.inputs, Config{Workers: tt.workers}, func(_ context.Context, n int) (string, error) {
				return fmt.Sprintf("class-%d", n), nil
			})
			require.Len(t, results, len(tt.inputs))
			assert.Equal(t, len(tt.inputs), stats.Total)
			assert.Zero(t, stats.Failed)
			for i, r := range results {
				assert.Equal(t, tt.inputs[i], r.Input)
				assert.Equal(t, fmt.Sprintf("class-%d", tt.inputs[i]), r.Value)
				assert.NoError(t, r.Err)
			}
		})
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	inputs := make([]int, 20)

	Map(context.Background(), inputs, Config{Workers: 3}, func(context.Context, int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return 0, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMap_Failures(t *testing.T) {
	boom := errors.New("boom")
	results, stats := Map(context.Background(), []int{1, 2, 3, 4}, Config{Workers: 2}, func(_ context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	})

	assert.Equal(t, 2, stats.Failed)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.ErrorIs(t, results[3].Err, boom)
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, stats := Map(ctx, []int{1, 2, 3}, Config{Workers: 1}, func(context.Context, int) (int, error) {
		return 1, nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, 3, stats.Total)
	// The first send may race with cancellation; every job either ran or reports the cancellation.
	for _, r := range results {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}

func TestMap_Timeout(t *testing.T) {
	cfg := Config{Workers: 1}.WithTimeout(10 * time.Millisecond)
	results, _ := Map(context.Background(), []int{1}, cfg, func(ctx context.Context, _ int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestForEach(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	ok, err := ForEach(context.Background(), []string{"a/A", "a/B", "a/C"}, DefaultConfig(), func(_ context.Context, name string) error {
		mu.Lock()
		defer mu.Unlock()
		seen[name] = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ok)
	assert.Len(t, seen, 3)

	ok, err = ForEach(context.Background(), []string{"a/A", "a/B", "a/C"}, DefaultConfig().WithWorkers(2), func(_ context.Context, name string) error {
		if name == "a/A" {
			return nil
		}
		return fmt.Errorf("export %s failed", name)
	})
	require.Error(t, err)
	assert.Equal(t, 1, ok)
	assert.Contains(t, err.Error(), "export a/B failed")
	assert.Contains(t, err.Error(), "export a/C failed")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.Workers, 2)
	assert.LessOrEqual(t, cfg.Workers, 8)
	assert.Equal(t, 5, cfg.WithWorkers(5).Workers)
}

func TestProgress(t *testing.T) {
	var mu sync.Mutex
	var reports [][2]int64
	p := NewProgress(3, func(done, total int64) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, [2]int64{done, total})
	}, time.Hour)
	p.Start(context.Background())

	for range 3 {
		p.Increment()
	}
	p.Stop()
	p.Stop()

	assert.Equal(t, int64(3), p.Completed())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int64{{3, 3}}, reports)
}
