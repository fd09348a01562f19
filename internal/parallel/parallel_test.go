package parallel

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	var counter int64
	n := 1000

	err := For(context.Background(), n, func(_ context.Context, _ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	err := For(context.Background(), 5, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	}, WithWorkers(1))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	for _, cfg := range []Config{WithWorkers(1), WithWorkers(4)} {
		var calls int64
		err := For(context.Background(), 100, func(ctx context.Context, i int) error {
			atomic.AddInt64(&calls, 1)
			if i == 3 {
				return boom
			}
			return nil
		}, cfg)
		assert.ErrorIs(t, err, boom)
		if !cfg.Enabled {
			assert.Equal(t, int64(4), calls)
		}
	}
}

func TestFor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int64
	err := For(ctx, 10, func(context.Context, int) error {
		atomic.AddInt64(&calls, 1)
		return nil
	}, WithWorkers(4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestMap(t *testing.T) {
	items := []int{3, 1, 4, 1, 5, 9, 2, 6}
	got, err := Map(context.Background(), items, func(_ context.Context, v int) (string, error) {
		return strconv.Itoa(v * 2), nil
	}, WithWorkers(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "2", "8", "2", "10", "18", "4", "12"}, got)

	_, err = Map(context.Background(), items, func(_ context.Context, v int) (int, error) {
		if v == 9 {
			return 0, strconv.ErrRange
		}
		return v, nil
	}, WithWorkers(3))
	assert.ErrorIs(t, err, strconv.ErrRange)
}

func TestWithWorkers(t *testing.T) {
	assert.False(t, WithWorkers(1).Enabled)
	assert.Equal(t, 8, WithWorkers(8).NumWorkers)
	assert.Equal(t, DefaultConfig(), WithWorkers(0))
}

func BenchmarkMap(b *testing.B) {
	items := make([]int, 10000)
	for i := range items {
		items[i] = i
	}
	square := func(_ context.Context, v int) (int, error) { return v * v, nil }

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = Map(context.Background(), items, square, DefaultConfig())
		}
	})
	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = Map(context.Background(), items, square, WithWorkers(1))
		}
	})
}
