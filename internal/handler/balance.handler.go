package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/internal/usecase/balance"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type BalanceHandler struct {
	balance      *balance.Service
	transactions *repository.TransactionRepository
}

func NewBalanceHandler(balanceService *balance.Service, transactions *repository.TransactionRepository) *BalanceHandler {
	return &BalanceHandler{balance: balanceService, transactions: transactions}
}

func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	bal, err := h.balance.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bal)
}

type depositRequest struct {
	Amount float64 `json:"amount"`
	GoalID *int64  `json:"goal_id,omitempty"`
}

func (h *BalanceHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.balance.Deposit(r.Context(), userID, req.Amount, req.GoalID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// DepositToGoal is Deposit with the goal fixed by the URL.
func (h *BalanceHandler) DepositToGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	goalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.balance.Deposit(r.Context(), userID, req.Amount, &goalID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *BalanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	txns, err := h.transactions.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}
