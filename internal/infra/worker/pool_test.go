//go:build !integration

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep input order when later items finish first", func(t *testing.T) {
		// Arrange: earlier items sleep longer
		items := []int{0, 1, 2, 3, 4, 5, 6, 7}
		fn := func(ctx context.Context, i int) int {
			time.Sleep(time.Duration(len(items)-i) * 5 * time.Millisecond)
			return i * 10
		}

		// Act
		got := Map(ctx, 5, items, fn)

		// Assert
		for i, v := range got {
			if v != i*10 {
				t.Fatalf("position %d: wanted %d, got %d (%v)", i, i*10, v, got)
			}
		}
	})

	t.Run("should never exceed the width", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		items := make([]int, 20)

		Map(ctx, 3, items, func(ctx context.Context, _ int) struct{} {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}
		})

		if peak.Load() > 3 {
			t.Errorf("peak concurrency %d exceeds width 3", peak.Load())
		}
	})

	t.Run("should handle empty input", func(t *testing.T) {
		got := Map(ctx, 5, []string{}, func(ctx context.Context, s string) string { return s })
		if len(got) != 0 {
			t.Errorf("expected empty output, got %v", got)
		}
	})

	t.Run("should use the default width for non-positive values", func(t *testing.T) {
		got := Map(ctx, 0, []int{1, 2, 3}, func(ctx context.Context, i int) int { return i + 1 })
		if got[0] != 2 || got[1] != 3 || got[2] != 4 {
			t.Errorf("unexpected output %v", got)
		}
		if Width(0) != DefaultWidth || Width(3) != 3 {
			t.Errorf("unexpected Width results %d %d", Width(0), Width(3))
		}
	})
}
