package tracker

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Snapshot is the result of fetching one project board. Err is only set in
// continue-on-error mode; otherwise a failed fetch fails the whole batch.
type Snapshot struct {
	CollectionID string
	Items        []TrackedItem
	Err          error
}

// FetchSnapshots lists several project boards concurrently under one
// overall timeout. With continueOnError set, individual failures are
// recorded per snapshot and the rest of the batch still completes.
func FetchSnapshots(ctx context.Context, client Client, collectionIDs []string, timeout time.Duration, continueOnError bool) ([]Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snapshots := make([]Snapshot, len(collectionIDs))
	p := pool.New().WithContext(ctx)
	for i, id := range collectionIDs {
		p.Go(func(ctx context.Context) error {
			items, err := client.ListCollectionItems(ctx, id)
			if err != nil {
				if continueOnError {
					snapshots[i] = Snapshot{CollectionID: id, Err: err}
					return nil
				}
				return err
			}
			snapshots[i] = Snapshot{CollectionID: id, Items: items}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
