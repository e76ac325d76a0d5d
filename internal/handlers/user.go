package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/services"
)

type UserHandler struct {
	service *services.UserService
	log     *logrus.Logger
}

func NewUserHandler(service *services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	id, created, err := h.service.Register(r.Context(), &models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		h.log.WithError(err).Error("failed to register user")
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]string{"message": "user already Exist"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to fetch users")
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}
