package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type PackageHandler struct {
	packages *repository.PackageRepository
}

func NewPackageHandler(packages *repository.PackageRepository) *PackageHandler {
	return &PackageHandler{packages: packages}
}

func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.packages.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pkgs)
}

func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid package id")
		return
	}

	pkg, err := h.packages.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pkg)
}

func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var pkg domain.TourPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if pkg.Name == "" || pkg.Price <= 0 {
		response.Error(w, http.StatusBadRequest, "Name and positive price are required")
		return
	}

	if err := h.packages.Create(r.Context(), &pkg); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, pkg)
}

func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid package id")
		return
	}

	var pkg domain.TourPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pkg.ID = id

	if err := h.packages.Update(r.Context(), &pkg); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, pkg)
}

func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid package id")
		return
	}

	if err := h.packages.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Package deleted"})
}
