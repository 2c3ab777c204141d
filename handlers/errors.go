package handlers

import (
	"errors"
	"log"
	"net/http"

	"quizadmin/models"
	"quizadmin/services"
	"quizadmin/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var importErr *services.ImportError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &importErr), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthenticated), errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInvalidLogin):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied), errors.Is(err, services.ErrAccountDisabled),
		errors.Is(err, services.ErrCannotDeleteSelf):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUnitNotFound), errors.Is(err, services.ErrBackupNotFound),
		errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, models.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailInUse), errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrCancelled):
		return http.StatusPreconditionFailed
	case errors.Is(err, services.ErrInvalidImportMode), errors.Is(err, services.ErrInvalidBackupKey),
		errors.Is(err, services.ErrInvalidRole), errors.Is(err, store.ErrUnknownUnitType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// confirmed reads the human approval a client collected before sending a
// destructive request.
func confirmed(c *gin.Context) services.Confirmer {
	return services.Approved(c.Query("confirm") == "true")
}
