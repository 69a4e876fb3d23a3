package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	clientredis "github.com/ridgeline-retail/fedhui/internal/clients/redis"
	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/types"
)

// StoreService implements spec.md §4.4's session registry: idempotent
// registration, heartbeats, and a liveness sweep. Postgres' Store row
// is the source of truth; a LivenessCache, when configured, gives
// ActiveStoreIDs a cheap approximate fast path that never lags the
// sweep period.
type StoreService interface {
	Register(ctx context.Context, storeID uuid.UUID, name, ip string) (*types.Store, error)
	Heartbeat(ctx context.Context, storeID uuid.UUID, ip string) (*types.Store, error)
	List(ctx context.Context) ([]*types.Store, error)

	// ActiveStoreIDs satisfies coordinator.ActiveStoreSource.
	ActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error)

	// Sweep flips stores that have gone quiet past inactiveAfter to
	// inactive; it is the only writer of "inactive" once a store has
	// ever been active (spec.md §4.4).
	Sweep(ctx context.Context, inactiveAfter time.Duration) (int, error)

	// StartSweep runs Sweep on a ticker until ctx is cancelled, the
	// same goroutine-per-concern shape as the teacher's Worker.Start.
	StartSweep(ctx context.Context, every, inactiveAfter time.Duration)
}

type storeService struct {
	log          *logger.Logger
	stores       repos.StoreRepo
	liveness     clientredis.LivenessCache // may be nil; Postgres is always authoritative
	heartbeatTTL time.Duration
}

func NewStoreService(baseLog *logger.Logger, stores repos.StoreRepo, liveness clientredis.LivenessCache, heartbeatTTL time.Duration) StoreService {
	if heartbeatTTL <= 0 {
		heartbeatTTL = 60 * time.Second
	}
	return &storeService{
		log:          baseLog.With("service", "StoreService"),
		stores:       stores,
		liveness:     liveness,
		heartbeatTTL: heartbeatTTL,
	}
}

func (s *storeService) Register(ctx context.Context, storeID uuid.UUID, name, ip string) (*types.Store, error) {
	now := time.Now()
	store, err := s.stores.Upsert(ctx, nil, storeID, name, ip, now)
	if err != nil {
		return nil, err
	}
	s.markLive(ctx, storeID)
	return store, nil
}

func (s *storeService) Heartbeat(ctx context.Context, storeID uuid.UUID, ip string) (*types.Store, error) {
	now := time.Now()
	if err := s.stores.TouchLastSeen(ctx, nil, storeID, types.StoreStatusActive, now); err != nil {
		return nil, err
	}
	s.markLive(ctx, storeID)
	return s.stores.GetByID(ctx, nil, storeID)
}

func (s *storeService) markLive(ctx context.Context, storeID uuid.UUID) {
	if s.liveness == nil {
		return
	}
	if err := s.liveness.MarkActive(ctx, storeID.String(), s.heartbeatTTL); err != nil {
		s.log.Warn("failed to refresh liveness cache", "store_id", storeID, "error", err)
	}
}

func (s *storeService) List(ctx context.Context) ([]*types.Store, error) {
	return s.stores.List(ctx, nil)
}

// ActiveStoreIDs reads the Redis liveness cache when available —
// cheap and always at least as fresh as the sweep period — and falls
// back to the Postgres connection_status projection otherwise
// (spec.md §9 "in-process vs external store" capability variants).
func (s *storeService) ActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	if s.liveness != nil {
		raw, err := s.liveness.ActiveStoreIDs(ctx)
		if err == nil {
			ids := make([]uuid.UUID, 0, len(raw))
			for _, r := range raw {
				id, perr := uuid.Parse(r)
				if perr != nil {
					continue
				}
				ids = append(ids, id)
			}
			return ids, nil
		}
		s.log.Warn("liveness cache unavailable, falling back to postgres", "error", err)
	}
	return s.activeStoreIDsFromPostgres(ctx)
}

func (s *storeService) activeStoreIDsFromPostgres(ctx context.Context) ([]uuid.UUID, error) {
	stores, err := s.stores.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(stores))
	for _, st := range stores {
		if st.ConnectionStatus == types.StoreStatusActive {
			ids = append(ids, st.ID)
		}
	}
	return ids, nil
}

func (s *storeService) Sweep(ctx context.Context, inactiveAfter time.Duration) (int, error) {
	cutoff := time.Now().Add(-inactiveAfter)
	stale, err := s.stores.ListInactiveSince(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	for _, st := range stale {
		if err := s.stores.TouchLastSeen(ctx, nil, st.ID, types.StoreStatusInactive, st.LastSeenAt); err != nil {
			s.log.Error("failed to mark store inactive", "store_id", st.ID, "error", err)
			continue
		}
		if s.liveness != nil {
			if err := s.liveness.Remove(ctx, st.ID.String()); err != nil {
				s.log.Warn("failed to remove stale liveness key", "store_id", st.ID, "error", err)
			}
		}
	}
	return len(stale), nil
}

func (s *storeService) StartSweep(ctx context.Context, every, inactiveAfter time.Duration) {
	s.log.Info("Starting store liveness sweep", "interval", every, "inactive_after", inactiveAfter)
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Liveness sweep stopped")
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx, inactiveAfter)
				if err != nil {
					s.log.Warn("liveness sweep failed", "error", err)
					continue
				}
				if n > 0 {
					s.log.Info("Liveness sweep flipped stores inactive", "count", n)
				}
			}
		}
	}()
}
