package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/services"
)

type RiderHandler struct {
	service *services.RiderService
	log     *logrus.Logger
}

func NewRiderHandler(service *services.RiderService, log *logrus.Logger) *RiderHandler {
	return &RiderHandler{service: service, log: log}
}

type riderApplyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *RiderHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req riderApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	id, err := h.service.Apply(r.Context(), &models.RiderApplication{Name: req.Name, Email: req.Email})
	if err != nil {
		h.log.WithError(err).Error("failed to create rider application")
		writeError(w, http.StatusInternalServerError, "Failed to create rider application")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *RiderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.RiderPending, models.RiderApproved, models.RiderRejected:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status filter, must be pending, approved or rejected")
		return
	}

	riders, err := h.service.List(r.Context(), status)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch rider applications")
		writeError(w, http.StatusInternalServerError, "Failed to fetch rider applications")
		return
	}

	writeJSON(w, http.StatusOK, riders)
}

type riderStatusRequest struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// SetStatus approves or rejects a rider application. Approval requires the
// applicant email so the user's role can be elevated.
func (h *RiderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	riderID := mux.Vars(r)["riderID"]

	var req riderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != models.RiderApproved && req.Status != models.RiderRejected {
		writeError(w, http.StatusBadRequest, "Status must be approved or rejected")
		return
	}
	if req.Status == models.RiderApproved && req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required for approval")
		return
	}

	result, err := h.service.SetStatus(r.Context(), riderID, req.Status, req.Email)
	if err != nil {
		if strings.Contains(err.Error(), "invalid rider id") {
			writeError(w, http.StatusBadRequest, "Invalid rider id")
			return
		}
		h.log.WithError(err).WithField("rider_id", riderID).Error("failed to update rider application")
		writeError(w, http.StatusInternalServerError, "Failed to update rider application")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RiderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	riderID := mux.Vars(r)["riderID"]

	n, err := h.service.Delete(r.Context(), riderID)
	if err != nil {
		if strings.Contains(err.Error(), "invalid rider id") {
			writeError(w, http.StatusBadRequest, "Invalid rider id")
			return
		}
		h.log.WithError(err).WithField("rider_id", riderID).Error("failed to delete rider application")
		writeError(w, http.StatusInternalServerError, "Failed to delete rider application")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deletedCount": n})
}
