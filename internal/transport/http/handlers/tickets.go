package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/validate"
)

type TicketsHandler struct {
	svc *ticket.Service
}

func NewTicketsHandler(svc *ticket.Service) *TicketsHandler {
	return &TicketsHandler{svc: svc}
}

func (h *TicketsHandler) Book(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	var req dto.BookTicketReq
	if r.ContentLength != 0 {
		if err := validate.Body(r, &req); err != nil {
			response.Err(w, r, err)
			return
		}
	}

	t, err := h.svc.BookTicket(r.Context(), ticket.BookCmd{
		EventID:    eventID,
		UserID:     middleware.UserID(r),
		Type:       domain.TicketType(req.Type),
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToTicketResp(t))
}

func (h *TicketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "ticket_id")
	if !ok {
		return
	}
	t, err := h.svc.GetTicket(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToTicketResp(t))
}

func (h *TicketsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "ticket_id")
	if !ok {
		return
	}
	t, err := h.svc.CancelTicket(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToTicketResp(t))
}

func (h *TicketsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	res, err := h.svc.ListMine(r.Context(), middleware.UserID(r), page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toTicketPage(res))
}

func (h *TicketsHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	page, pageSize, err := pageParams(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	res, err := h.svc.ListByEvent(r.Context(), eventID, middleware.Role(r), page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toTicketPage(res))
}

func toTicketPage(p ticket.TicketPage) dto.PageResp[dto.TicketResp] {
	return dto.PageResp[dto.TicketResp]{
		Items:    dto.ToTicketResps(p.Items),
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
	}
}

// Inventories

func (h *TicketsHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	inv, err := h.svc.GetInventory(r.Context(), eventID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToInventoryResp(inv))
}

// OpenInventory is the manual counterpart of the event.published consumer.
func (h *TicketsHandler) OpenInventory(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenInventoryReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	inv, err := h.svc.OpenInventory(r.Context(), req.EventID, req.TotalSeats)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToInventoryResp(inv))
}

func (h *TicketsHandler) CloseInventory(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	inv, err := h.svc.CloseInventory(r.Context(), eventID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToInventoryResp(inv))
}
