package handler

import (
	"encoding/json"
	"net/http"

	"github.com/PerfZero/smsatlra/internal/usecase/monitor"
	"github.com/PerfZero/smsatlra/internal/usecase/reconcile"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type MonitorHandler struct {
	scheduler       *monitor.Scheduler
	engine          *reconcile.Engine
	defaultInterval int
}

func NewMonitorHandler(scheduler *monitor.Scheduler, engine *reconcile.Engine, defaultInterval int) *MonitorHandler {
	return &MonitorHandler{scheduler: scheduler, engine: engine, defaultInterval: defaultInterval}
}

type monitorIntervalRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

func (h *MonitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	interval := h.defaultInterval
	if r.Body != nil && r.ContentLength > 0 {
		var req monitorIntervalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.IntervalSeconds > 0 {
			interval = req.IntervalSeconds
		}
	}

	if err := h.scheduler.Start(interval); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Stop()
	response.JSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *MonitorHandler) ChangeInterval(w http.ResponseWriter, r *http.Request) {
	var req monitorIntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.scheduler.ChangeInterval(req.IntervalSeconds); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.scheduler.Status())
}

// ForceRun executes one reconciliation pass synchronously, regardless of
// whether the timer is armed.
func (h *MonitorHandler) ForceRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Reconcile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
