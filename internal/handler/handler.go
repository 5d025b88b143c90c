package handler

import (
	"errors"
	"net/http"

	"github.com/PerfZero/smsatlra/internal/xerrors"
	"github.com/PerfZero/smsatlra/pkg/response"
)

// writeError maps the usecase sentinel errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Неверный ИИН или пароль")
	case errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, xerrors.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, xerrors.ErrUserAlreadyExists):
		response.Error(w, http.StatusConflict, "Пользователь с таким ИИН или телефоном уже существует")
	case errors.Is(err, xerrors.ErrDuplicateIIN):
		response.Error(w, http.StatusConflict, "ИИН уже используется")
	case errors.Is(err, xerrors.ErrDuplicateTransfer):
		response.Error(w, http.StatusConflict, "Платеж уже зарегистрирован")
	case errors.Is(err, xerrors.ErrUserNotFound),
		errors.Is(err, xerrors.ErrGoalNotFound),
		errors.Is(err, xerrors.ErrBalanceNotFound),
		errors.Is(err, xerrors.ErrRelativeNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrInvalidAmount),
		errors.Is(err, xerrors.ErrInvalidInterval),
		errors.Is(err, xerrors.ErrCodeMismatch):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrCodeNotFound), errors.Is(err, xerrors.ErrCodeExpired):
		response.Error(w, http.StatusBadRequest, "Код не найден или истек")
	case errors.Is(err, xerrors.ErrMonitorNotRunning):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, xerrors.ErrMailboxUnavailable):
		response.Error(w, http.StatusBadGateway, "Почтовый ящик недоступен")
	default:
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
