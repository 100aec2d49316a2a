package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/validate"
)

type EventsHandler struct {
	svc   *event.Service
	clock Clock
}

func NewEventsHandler(svc *event.Service, clock Clock) *EventsHandler {
	return &EventsHandler{svc: svc, clock: clock}
}

// Public
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize, err := pageParams(q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	from, err := timeParam(q, "from")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	to, err := timeParam(q, "to")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	filter := event.ListFilter{
		Category:    domain.Category(q.Get("category")),
		Status:      domain.EventStatus(q.Get("status")),
		OrganizerID: q.Get("organizer_id"),
		Location:    q.Get("location"),
		Query:       q.Get("q"),
		From:        from,
		To:          to,
		Page:        page,
		PageSize:    pageSize,
	}
	res, err := h.svc.List(r.Context(), filter)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, dto.PageResp[dto.EventResp]{
		Items:    dto.ToEventResps(res.Items, h.clock.Now().UTC()),
		Page:     res.Page,
		PageSize: res.PageSize,
		Total:    res.Total,
	})
}

func (h *EventsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	items, err := h.svc.Upcoming(r.Context(), limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResps(items, h.clock.Now().UTC()))
}

func (h *EventsHandler) Ongoing(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	items, err := h.svc.Ongoing(r.Context(), limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResps(items, h.clock.Now().UTC()))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	ev, err := h.svc.Get(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

// Organizer
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	ev, err := h.svc.Create(r.Context(), event.CreateCmd{
		ActorID:     middleware.UserID(r),
		ActorRole:   middleware.Role(r),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    category,
		ImageURL:    req.ImageURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	var req dto.UpdateEventReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}

	cmd := event.UpdateCmd{
		ActorID:     middleware.UserID(r),
		ActorRole:   middleware.Role(r),
		EventID:     id,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
	}
	if req.Category != nil {
		c, err := domain.ParseCategory(*req.Category)
		if err != nil {
			response.Err(w, r, err)
			return
		}
		cmd.Category = &c
	}

	ev, err := h.svc.Update(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, middleware.UserID(r), middleware.Role(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}

type transitionFn func(ctx context.Context, eventID, actorID, actorRole string) (*domain.Event, error)

func (h *EventsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Publish)
}

func (h *EventsHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Start)
}

func (h *EventsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

func (h *EventsHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFn) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	ev, err := fn(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

// Cancel accepts an empty body; the reason is optional.
func (h *EventsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	var req dto.CancelEventReq
	if r.ContentLength != 0 {
		if err := validate.Body(r, &req); err != nil {
			response.Err(w, r, err)
			return
		}
	}
	ev, err := h.svc.Cancel(r.Context(), id, middleware.UserID(r), middleware.Role(r), req.Reason)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

// Seats endpoints are admin-only at the router.
func (h *EventsHandler) DecreaseSeats(w http.ResponseWriter, r *http.Request) {
	h.adjustSeats(w, r, h.svc.DecreaseAvailableSeats)
}

func (h *EventsHandler) IncreaseSeats(w http.ResponseWriter, r *http.Request) {
	h.adjustSeats(w, r, h.svc.IncreaseAvailableSeats)
}

func (h *EventsHandler) adjustSeats(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string, qty int) (*domain.Event, error)) {
	id, ok := pathUUID(w, r, "event_id")
	if !ok {
		return
	}
	var req dto.SeatsReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	ev, err := op(r.Context(), id, req.Qty)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.clock.Now().UTC()))
}

func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize, err := pageParams(q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	res, err := h.svc.ListByOrganizer(r.Context(),
		middleware.UserID(r), middleware.Role(r),
		q.Get("organizer_id"), domain.EventStatus(q.Get("status")),
		page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.PageResp[dto.EventResp]{
		Items:    dto.ToEventResps(res.Items, h.clock.Now().UTC()),
		Page:     res.Page,
		PageSize: res.PageSize,
		Total:    res.Total,
	})
}

func (h *EventsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	organizerID := r.URL.Query().Get("organizer_id")
	if organizerID == "" {
		organizerID = middleware.UserID(r)
	}
	counts, err := h.svc.StatusCounts(r.Context(), middleware.UserID(r), middleware.Role(r), organizerID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToStatusCountsResp(organizerID, counts))
}
