package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/usecase/goal"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type GoalHandler struct {
	goals *goal.Service
}

func NewGoalHandler(goalService *goal.Service) *GoalHandler {
	return &GoalHandler{goals: goalService}
}

func validGoalType(t string) bool {
	return t == domain.GoalTypeUmrah || t == domain.GoalTypeHajj
}

func (h *GoalHandler) CreateSelfGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req goal.CreateGoalInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validGoalType(req.Type) {
		response.Error(w, http.StatusBadRequest, "Тип цели должен быть UMRAH или HAJJ")
		return
	}
	if req.TargetAmount <= 0 {
		response.Error(w, http.StatusBadRequest, "Целевая сумма должна быть положительной")
		return
	}

	g, err := h.goals.CreateSelfGoal(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) CreateFamilyGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req goal.CreateFamilyGoalInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !iinPattern.MatchString(req.IIN) {
		response.Error(w, http.StatusBadRequest, "ИИН должен состоять из 12 цифр")
		return
	}
	if req.FullName == "" {
		response.Error(w, http.StatusBadRequest, "Укажите ФИО родственника")
		return
	}
	if !validGoalType(req.Type) {
		response.Error(w, http.StatusBadRequest, "Тип цели должен быть UMRAH или HAJJ")
		return
	}
	if req.TargetAmount <= 0 {
		response.Error(w, http.StatusBadRequest, "Целевая сумма должна быть положительной")
		return
	}

	g, err := h.goals.CreateFamilyGoal(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	goals, err := h.goals.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	goalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	g, err := h.goals.GetGoalForUser(r.Context(), goalID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}
