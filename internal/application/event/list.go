package event

import (
	"context"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

type ListFilter struct {
	Category    domain.Category
	Status      domain.EventStatus // empty = every status except draft
	OrganizerID string
	Location    string // case-insensitive contains
	Query       string // case-insensitive title contains
	From        *time.Time
	To          *time.Time

	Page     int
	PageSize int
}

func (f *ListFilter) Normalize() error {
	f.OrganizerID = strings.TrimSpace(f.OrganizerID)
	f.Location = strings.TrimSpace(f.Location)
	f.Query = strings.TrimSpace(f.Query)

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	if f.Category != "" && !f.Category.Valid() {
		return domain.ErrInvalidDataMeta("invalid query param", map[string]string{
			"category": "unknown category",
		})
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.ErrInvalidDataMeta("invalid query param", map[string]string{
			"status": "unknown status",
		})
	}
	if f.Status == domain.StatusDraft {
		return domain.ErrInvalidDataMeta("invalid query param", map[string]string{
			"status": "drafts are only listed for their organizer",
		})
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return domain.ErrInvalidData("to must be >= from")
	}
	return nil
}

type ListResult struct {
	Items    []*domain.Event `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
}

// List searches non-draft events. Only the first page is cached.
func (s *Service) List(ctx context.Context, f ListFilter) (ListResult, error) {
	if err := f.Normalize(); err != nil {
		return ListResult{}, err
	}

	cacheKey := ""
	if f.Page == 1 && s.cache != nil {
		cacheKey = cacheKeyList(f)
		var cached ListResult
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list get failed")
		} else if found {
			zlog.Debug().Str("key", cacheKey).Msg("cache list hit")
			return cached, nil
		}
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	res := ListResult{Items: items, Page: f.Page, PageSize: f.PageSize, Total: total}

	if cacheKey != "" && len(items) > 0 {
		if err := s.cache.Set(ctx, cacheKey, res, s.ttlList); err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list set failed")
		}
	}
	return res, nil
}

// Upcoming returns published events that have not started yet, soonest first.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]*domain.Event, error) {
	return s.repo.ListUpcoming(ctx, s.clock.Now().UTC(), clampLimit(limit))
}

// Ongoing returns events marked ongoing plus published ones whose window contains now.
func (s *Service) Ongoing(ctx context.Context, limit int) ([]*domain.Event, error) {
	return s.repo.ListOngoing(ctx, s.clock.Now().UTC(), clampLimit(limit))
}

func (s *Service) ListByOrganizer(ctx context.Context, actorID, actorRole, organizerID string, status domain.EventStatus, page, pageSize int) (ListResult, error) {
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		organizerID = actorID
	}
	if !canManage(actorID, actorRole, organizerID) {
		return ListResult{}, domain.ErrForbidden("not allowed")
	}
	if status != "" && !status.Valid() {
		return ListResult{}, domain.ErrInvalidDataMeta("invalid query param", map[string]string{
			"status": "unknown status",
		})
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.ListByOrganizer(ctx, organizerID, status, page, pageSize)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// StatusCounts returns the organizer's event count for every status.
func (s *Service) StatusCounts(ctx context.Context, actorID, actorRole, organizerID string) (map[domain.EventStatus]int, error) {
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		organizerID = actorID
	}
	if !canManage(actorID, actorRole, organizerID) {
		return nil, domain.ErrForbidden("not allowed")
	}

	out := make(map[domain.EventStatus]int, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		n, err := s.repo.CountByOrganizerAndStatus(ctx, organizerID, st)
		if err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
