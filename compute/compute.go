/*
	Package compute provides the narrow in-process parallel-execution
	primitives the stitcher stages are expressed over: bounded
	map-per-partition and a group-by-key rendezvous.  Tasks are
	shared-nothing: each reads only its own assigned inputs plus
	read-only broadcast values, so no locking is needed outside the
	rendezvous points.
*/
package compute

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MapEach runs fn for every index in [0, n) with bounded parallelism.
// The first error cancels outstanding tasks and is returned.
func MapEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
