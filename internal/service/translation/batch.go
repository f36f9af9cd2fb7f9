package translation

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Result is the outcome of one fetch in a batch.
type Result struct {
	Key         domain.Key
	Translation string
	Err         error
}

// BeginFunc is called before a key's fetch is started. Returning false
// skips the key; returning an error stops dispatching.
type BeginFunc func(ctx context.Context, key domain.Key) (bool, error)

// FetchAll fetches keys with at most Concurrency requests in flight and
// sends each result on the returned channel as soon as it completes, so
// results arrive in completion order. The channel is closed once every
// started fetch has reported.
//
// begin runs on a single dispatching goroutine in key order. Dispatching
// stops when ctx is done, when begin fails, or after the first
// domain.ErrNetworkUnavailable, which also cancels fetches in flight.
// Keys never handed to begin produce no result. The caller must drain the
// channel.
func (f *Fetcher) FetchAll(ctx context.Context, keys []domain.Key, begin BeginFunc) <-chan Result {
	results := make(chan Result, f.cfg.Concurrency)

	batchCtx, cancel := context.WithCancelCause(ctx)
	g := new(errgroup.Group)
	g.SetLimit(f.cfg.Concurrency)

	go func() {
		defer close(results)
		defer cancel(nil)

		for _, key := range keys {
			if batchCtx.Err() != nil {
				break
			}
			ok, err := begin(batchCtx, key)
			if err != nil {
				cancel(err)
				break
			}
			if !ok {
				continue
			}

			g.Go(func() error {
				// Queued behind a failure that stopped the batch.
				if batchCtx.Err() != nil {
					results <- Result{Key: key, Err: context.Cause(batchCtx)}
					return nil
				}
				text, err := f.Fetch(batchCtx, key)
				if errors.Is(err, domain.ErrNetworkUnavailable) {
					cancel(err)
				}
				results <- Result{Key: key, Translation: text, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results
}
