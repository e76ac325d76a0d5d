package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zepshift/zepshift-gobackend/internal/services"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

func TestRegisterAndDuplicate(t *testing.T) {
	handler := NewUserHandler(services.NewUserService(store.NewMemory()), testLogger())

	body := `{"name":"Ana","email":"a@x.com"}`
	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created["id"])

	rec = httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var dup map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dup))
	assert.Equal(t, "user already Exist", dup["message"])
}

func TestRegisterRequiresEmail(t *testing.T) {
	handler := NewUserHandler(services.NewUserService(store.NewMemory()), testLogger())

	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Ana"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
