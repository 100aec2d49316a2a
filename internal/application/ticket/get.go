package ticket

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

func (s *Service) GetTicket(ctx context.Context, id, actorID, actorRole string) (*domain.Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actorID, actorRole, t.UserID) {
		// do not reveal other users' tickets
		return nil, domain.ErrNotFound("ticket not found")
	}
	return t, nil
}

type TicketPage struct {
	Items    []*domain.Ticket
	Page     int
	PageSize int
	Total    int
}

func (s *Service) ListMine(ctx context.Context, actorID string, page, pageSize int) (TicketPage, error) {
	if strings.TrimSpace(actorID) == "" {
		return TicketPage{}, domain.ErrForbidden("not allowed")
	}
	page, pageSize = clampPage(page, pageSize)
	items, total, err := s.repo.ListByUser(ctx, actorID, page, pageSize)
	if err != nil {
		return TicketPage{}, err
	}
	return TicketPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID, actorRole string, page, pageSize int) (TicketPage, error) {
	if !isAdmin(actorRole) {
		return TicketPage{}, domain.ErrForbidden("admin only")
	}
	page, pageSize = clampPage(page, pageSize)
	items, total, err := s.repo.ListByEvent(ctx, eventID, page, pageSize)
	if err != nil {
		return TicketPage{}, err
	}
	return TicketPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}
