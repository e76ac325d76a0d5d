package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zepshift/zepshift-gobackend/internal/middleware"
	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/services"
)

type ParcelHandler struct {
	service *services.ParcelService
	log     *logrus.Logger
}

func NewParcelHandler(service *services.ParcelService, log *logrus.Logger) *ParcelHandler {
	return &ParcelHandler{service: service, log: log}
}

type bookParcelRequest struct {
	ParcelName  string  `json:"parcelName"`
	SenderEmail string  `json:"senderEmail"`
	Price       float64 `json:"price"`
}

func (h *ParcelHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookParcelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ParcelName == "" || req.SenderEmail == "" {
		writeError(w, http.StatusBadRequest, "parcelName and senderEmail are required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be positive")
		return
	}

	id, err := h.service.Book(r.Context(), &models.Parcel{
		ParcelName:  req.ParcelName,
		SenderEmail: req.SenderEmail,
		Price:       req.Price,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to book parcel")
		writeError(w, http.StatusInternalServerError, "Failed to book parcel")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// List returns the caller's parcels. A supplied email must match the
// verified caller.
func (h *ParcelHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	email := r.URL.Query().Get("email")
	if email != "" && email != caller {
		writeError(w, http.StatusForbidden, "Unauthorized to view parcels for this user")
		return
	}

	parcels, err := h.service.List(r.Context(), email)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch parcels")
		writeError(w, http.StatusInternalServerError, "Failed to fetch parcels")
		return
	}

	writeJSON(w, http.StatusOK, parcels)
}

func (h *ParcelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	parcelID := mux.Vars(r)["parcelID"]

	n, err := h.service.Delete(r.Context(), parcelID)
	if err != nil {
		if strings.Contains(err.Error(), "invalid parcel id") {
			writeError(w, http.StatusBadRequest, "Invalid parcel id")
			return
		}
		h.log.WithError(err).WithField("parcel_id", parcelID).Error("failed to delete parcel")
		writeError(w, http.StatusInternalServerError, "Failed to delete parcel")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deletedCount": n})
}
