package event

import (
	"context"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

type Service struct {
	repo  EventRepo
	cache Cache
	clock Clock

	ttlDetails time.Duration
	ttlList    time.Duration
}

func New(repo EventRepo, clock Clock, cache Cache, ttlDetails, ttlList time.Duration) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if ttlList == 0 {
		ttlList = 15 * time.Second
	}

	return &Service{
		repo:       repo,
		cache:      cache,
		clock:      clock,
		ttlDetails: ttlDetails,
		ttlList:    ttlList,
	}
}

func isAdmin(role string) bool { return role == string(domain.RoleAdmin) }

func canCreate(role string) bool {
	return role == string(domain.RoleOrganizer) || isAdmin(role)
}

func canManage(actorID, actorRole, organizerID string) bool {
	if isAdmin(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == organizerID
}

// invalidate drops the details key after a commit. List pages are left to
// expire on their short TTL. Failures are logged only.
func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	key := cacheKeyEventDetails(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}
