package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1000} {
		visited := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&visited[i], 1)
			}
		})
		for i, count := range visited {
			if count != 1 {
				t.Errorf("items=%d: index %d visited %d times, want exactly once", items, i, count)
			}
		}
	}
}

func TestParallelizeAccumulates(t *testing.T) {
	const n = 500
	var total int64
	Parallelize(n, func(start, end int) {
		var local int64
		for i := start; i < end; i++ {
			local += int64(i)
		}
		atomic.AddInt64(&total, local)
	})
	want := int64(n * (n - 1) / 2)
	if total != want {
		t.Errorf("total = %d, want %d", total, want)
	}
}
