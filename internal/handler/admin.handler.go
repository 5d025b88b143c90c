package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/extractor"
	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type AdminHandler struct {
	users *repository.UserRepository
}

func NewAdminHandler(users *repository.UserRepository) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleAdmin {
		response.Error(w, http.StatusBadRequest, "Role must be USER or ADMIN")
		return
	}

	user, err := h.users.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

// DeleteUser removes a user with everything they own. Admins cannot delete
// themselves.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	callerID, _ := middleware.GetUserID(r.Context())
	if callerID == id {
		response.Error(w, http.StatusBadRequest, "Cannot delete own account")
		return
	}

	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.DeleteCascade(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

type parseEmailRequest struct {
	Text string `json:"text"`
}

// ParseEmail runs the extraction cascade over a pasted email body without
// touching any account. Used to debug new notification templates.
func (h *AdminHandler) ParseEmail(w http.ResponseWriter, r *http.Request) {
	var req parseEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		response.Error(w, http.StatusBadRequest, "Text is required")
		return
	}

	notice, err := extractor.Extract(req.Text)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, notice)
}
