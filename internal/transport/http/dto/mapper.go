package dto

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

func ToEventResp(e *domain.Event, now time.Time) EventResp {
	return EventResp{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Category:       string(e.Category),
		ImageURL:       e.ImageURL,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		Capacity:       e.Capacity,
		AvailableSeats: e.AvailableSeats,
		Status:         string(e.Status),

		PublishedAt:  e.PublishedAt,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
		CanceledAt:   e.CanceledAt,
		CancelReason: e.CancelReason,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,

		Modifiable:  e.IsModifiable(),
		Cancellable: e.IsCancellable(),
		Bookable:    e.IsBookable(now),
	}
}

func ToEventResps(items []*domain.Event, now time.Time) []EventResp {
	out := make([]EventResp, 0, len(items))
	for _, e := range items {
		out = append(out, ToEventResp(e, now))
	}
	return out
}

func ToStatusCountsResp(organizerID string, counts map[domain.EventStatus]int) StatusCountsResp {
	out := StatusCountsResp{OrganizerID: organizerID, Counts: make(map[string]int, len(counts))}
	for s, n := range counts {
		out.Counts[string(s)] = n
	}
	return out
}

func ToInventoryResp(s *domain.SeatInventory) InventoryResp {
	return InventoryResp{
		EventID:        s.EventID,
		TotalSeats:     s.TotalSeats,
		RemainingSeats: s.RemainingSeats,
		Open:           s.Open,
		UpdatedAt:      s.UpdatedAt,
	}
}

func ToTicketResp(t *domain.Ticket) TicketResp {
	return TicketResp{
		ID:             t.ID,
		EventID:        t.EventID,
		UserID:         t.UserID,
		Type:           string(t.Type),
		PriceCents:     t.PriceCents,
		Currency:       t.Currency,
		RedemptionCode: t.RedemptionCode,
		Status:         string(t.Status),
		CanceledAt:     t.CanceledAt,
		CreatedAt:      t.CreatedAt,
	}
}

func ToTicketResps(items []*domain.Ticket) []TicketResp {
	out := make([]TicketResp, 0, len(items))
	for _, t := range items {
		out = append(out, ToTicketResp(t))
	}
	return out
}

func ToUserResp(u *domain.User) UserResp {
	return UserResp{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResps(items []*domain.User) []UserResp {
	out := make([]UserResp, 0, len(items))
	for _, u := range items {
		out = append(out, ToUserResp(u))
	}
	return out
}
