package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizadmin/models"
	"quizadmin/services"
	"quizadmin/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ImportError{Stage: services.StageParse, Reason: "bad json"}, http.StatusBadRequest},
		{services.ErrInvalidImportMode, http.StatusBadRequest},
		{store.ErrUnknownUnitType, http.StatusBadRequest},
		{services.ErrNotAuthenticated, http.StatusUnauthorized},
		{services.ErrInvalidLogin, http.StatusUnauthorized},
		{services.ErrPermissionDenied, http.StatusForbidden},
		{services.ErrAccountDisabled, http.StatusForbidden},
		{fmt.Errorf("restore: %w", services.ErrBackupNotFound), http.StatusNotFound},
		{models.ErrIndexOutOfRange, http.StatusNotFound},
		{services.ErrBusy, http.StatusConflict},
		{services.ErrEmailInUse, http.StatusConflict},
		{services.ErrCancelled, http.StatusPreconditionFailed},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	respond := func(err error) map[string]string {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/units", nil)
		respondError(c, err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	assert.Equal(t, "Internal server error", respond(errors.New("connection refused"))["error"])
	assert.Equal(t, services.ErrBusy.Error(), respond(services.ErrBusy)["error"])
}

func TestConfirmedReadsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	confirm := func(target string) bool {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, target, nil)
		return confirmed(c).Confirm(c.Request.Context(), "Continue?")
	}

	assert.True(t, confirm("/api/import?confirm=true"))
	assert.False(t, confirm("/api/import?confirm=1"))
	assert.False(t, confirm("/api/import"))
}
