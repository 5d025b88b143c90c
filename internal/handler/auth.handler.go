package handler

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/usecase/auth"
	"github.com/PerfZero/smsatlra/pkg/response"
)

var iinPattern = regexp.MustCompile(`^\d{12}$`)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

type registerRequest struct {
	IIN      string `json:"iin"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !iinPattern.MatchString(req.IIN) {
		response.Error(w, http.StatusBadRequest, "ИИН должен состоять из 12 цифр")
		return
	}
	if len(req.Password) < 6 {
		response.Error(w, http.StatusBadRequest, "Пароль должен быть не короче 6 символов")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.IIN, req.Phone, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

type loginRequest struct {
	IIN      string `json:"iin"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.IIN, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}
