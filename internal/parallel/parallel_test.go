package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	sum := 0
	For(10, func(i int) { sum += i }, cfg)

	if sum != 45 {
		t.Errorf("sum = %d, want 45", sum)
	}
}

func TestFor_Parallel(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	var sum atomic.Int64
	For(1000, func(i int) { sum.Add(int64(i)) }, cfg)

	if got := sum.Load(); got != 499500 {
		t.Errorf("sum = %d, want 499500", got)
	}
}

func TestFor_SmallRangeFallsBackToSequential(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	// Below MinChunkSize the loop must run sequentially, so unsynchronized
	// access is safe.
	visited := make([]bool, 10)
	For(10, func(i int) { visited[i] = true }, cfg)

	for i, v := range visited {
		if !v {
			t.Errorf("index %d not visited", i)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize <= 0 {
		t.Errorf("MinChunkSize = %d, want > 0", cfg.MinChunkSize)
	}
}
