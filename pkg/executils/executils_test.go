package executils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestFanoutVisitsEveryValue(t *testing.T) {
	for _, size := range []int{0, 3, 100} {
		vals := make([]int, size)
		for i := range vals {
			vals[i] = i
		}

		var sum atomic.Int64
		Fanout(vals, 8, func(v int) {
			sum.Add(int64(v))
		})

		want := int64(size*(size-1)) / 2
		require.Equal(t, want, sum.Load(), "size %d", size)
	}
}

func TestFanoutSmallBatchStaysSequential(t *testing.T) {
	var order []int
	Fanout([]int{1, 2, 3}, 8, func(v int) {
		order = append(order, v)
	})
	require.Equal(t, []int{1, 2, 3}, order)
}
