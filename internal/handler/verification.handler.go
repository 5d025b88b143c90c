package handler

import (
	"encoding/json"
	"net/http"

	"github.com/PerfZero/smsatlra/internal/usecase/verification"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type VerificationHandler struct {
	verification *verification.Service
}

func NewVerificationHandler(v *verification.Service) *VerificationHandler {
	return &VerificationHandler{verification: v}
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

func (h *VerificationHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Phone == "" {
		response.Error(w, http.StatusBadRequest, "Укажите номер телефона")
		return
	}

	if err := h.verification.SendCode(r.Context(), req.Phone); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Код отправлен"})
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *VerificationHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.verification.VerifyCode(r.Context(), req.Phone, req.Code); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"verified": true})
}
