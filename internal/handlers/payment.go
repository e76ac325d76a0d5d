package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/zepshift/zepshift-gobackend/internal/middleware"
	"github.com/zepshift/zepshift-gobackend/internal/services"
)

type PaymentHandler struct {
	service *services.PaymentService
	log     *logrus.Logger
}

func NewPaymentHandler(service *services.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

type checkoutRequest struct {
	ParcelID   string  `json:"parcelId"`
	Price      float64 `json:"price"`
	Email      string  `json:"email"`
	ParcelName string  `json:"parcelName"`
}

// CreateCheckoutSession opens a hosted checkout session and returns the
// redirect URL.
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ParcelID == "" || req.Email == "" || req.ParcelName == "" {
		writeError(w, http.StatusBadRequest, "parcelId, email and parcelName are required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be positive")
		return
	}

	url, err := h.service.InitiateCheckout(r.Context(), req.ParcelID, req.Price, req.Email, req.ParcelName)
	if err != nil {
		h.log.WithError(err).Error("checkout initiation failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create checkout session: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// PaymentSuccess reconciles a checkout session after the client returns from
// the gateway. Safe to call repeatedly for the same session.
func (h *PaymentHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	res, err := h.service.Reconcile(r.Context(), sessionID)
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Error("reconciliation failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to reconcile payment: %v", err))
		return
	}

	switch res.Outcome {
	case services.OutcomeAlreadyRecorded:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":       "payment already done!",
			"transactionId": res.TransactionID,
			"trackingId":    res.TrackingID,
		})
	case services.OutcomeNotPaid:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "payment not completed",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"paymentInfo":   res.Payment,
			"trackingId":    res.TrackingID,
			"modifyParcels": res.ParcelUpdate,
			"transactionId": res.TransactionID,
		})
	}
}

// ListPayments returns payment history for the verified caller. A supplied
// email must match the caller's.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	email := r.URL.Query().Get("email")
	if email != "" && email != caller {
		writeError(w, http.StatusForbidden, "Unauthorized to view payments for this user")
		return
	}

	payments, err := h.service.ListPayments(r.Context(), email)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch payments")
		writeError(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}

	writeJSON(w, http.StatusOK, payments)
}
