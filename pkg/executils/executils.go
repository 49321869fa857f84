package executils

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Fanout runs fn over vals. Small batches stay on the calling goroutine;
// anything at or above parallelThreshold is spread across NumCPU workers.
func Fanout[T any](vals []T, parallelThreshold int, fn func(T)) {
	if len(vals) < parallelThreshold {
		for _, v := range vals {
			fn(v)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, v := range vals {
		v := v
		g.Go(func() error {
			fn(v)
			return nil
		})
	}
	_ = g.Wait()
}
