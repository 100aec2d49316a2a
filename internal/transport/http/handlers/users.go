package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/validate"
)

type UsersHandler struct {
	svc *user.Service
}

func NewUsersHandler(svc *user.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// Create is the public sign-up. It always creates a participant.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	u, err := h.svc.Create(r.Context(), user.CreateCmd{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.RoleParticipant,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToUserResp(u))
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	res, err := h.svc.List(r.Context(), page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.PageResp[dto.UserResp]{
		Items:    dto.ToUserResps(res.Items),
		Page:     res.Page,
		PageSize: res.PageSize,
		Total:    res.Total,
	})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToUserResp(u))
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req dto.UpdateUserReq
	if err := validate.Body(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	cmd := user.UpdateCmd{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		cmd.Role = &role
	}
	u, err := h.svc.Update(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToUserResp(u))
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}
