package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// Get returns an event. Drafts are only visible to their organizer or an
// admin, and only non-draft snapshots are cached.
func (s *Service) Get(ctx context.Context, id, actorID, actorRole string) (*domain.Event, error) {
	key := cacheKeyEventDetails(id)

	if s.cache != nil {
		var cached domain.Event
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found && cached.Status != domain.StatusDraft {
			zlog.Debug().Str("key", key).Msg("cache hit")
			return &cached, nil
		}
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.StatusDraft {
		if !canManage(actorID, actorRole, e.OrganizerID) {
			return nil, domain.ErrNotFound("event not found")
		}
		return e, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return e, nil
}
