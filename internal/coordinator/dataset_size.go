package coordinator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// datasetSizesByStore fans out CountByStore across the round's
// contributing stores, needed for the weighted-average global_support
// formula.
func (c *Coordinator) datasetSizesByStore(ctx context.Context, storeIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	sizes := make(map[uuid.UUID]int64, len(storeIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range storeIDs {
		storeID := id
		g.Go(func() error {
			count, err := c.txns.CountByStore(gctx, nil, storeID)
			if err != nil {
				return err
			}
			mu.Lock()
			sizes[storeID] = count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sizes, nil
}
