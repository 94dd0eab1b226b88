package service

import (
	"context"
	"log"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
)

// Cleaner removes helper-owned locations whose helper no longer exists.
type Cleaner struct {
	locations *repository.LocationRepository
	helpers   HelperDirectory
}

func NewCleaner(locations *repository.LocationRepository, helpers HelperDirectory) *Cleaner {
	return &Cleaner{locations: locations, helpers: helpers}
}

// CleanupOrphans is a best-effort sweep: it is not transactional and a
// location deleted concurrently is skipped.
func (c *Cleaner) CleanupOrphans(ctx context.Context) (int, error) {
	refs, err := c.locations.HelperOwnedRefs(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[uint]bool)
	removed := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		hid := *ref.HelperID
		exists, seen := known[hid]
		if !seen {
			exists, err = c.helpers.Exists(ctx, hid)
			if err != nil {
				return removed, err
			}
			known[hid] = exists
		}
		if exists {
			continue
		}
		if err := c.locations.Delete(ctx, ref.ID); err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		log.Printf("[cleanup] removed %d orphaned helper locations", removed)
	}
	return removed, nil
}

// RunEvery sweeps on a fixed interval until ctx is done.
func (c *Cleaner) RunEvery(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, err := c.CleanupOrphans(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[cleanup] %v", err)
			}
		}
	}
}
