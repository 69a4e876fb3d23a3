package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// RespondError renders every failure as {error, message, timestamp}
// (spec.md §7 "User-visible failure"). The status and code are derived
// from err's domainerrors.Domain wrapping when present; otherwise
// gorm.ErrRecordNotFound and the domainerrors sentinels map to their
// matching status, and anything else is treated as an internal error.
func RespondError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, APIError{
		Message:   msg,
		Code:      string(code),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func classify(err error) (int, domainerrors.Code) {
	var domainErr *domainerrors.Domain
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domainerrors.CodeValidation:
			return http.StatusBadRequest, domainErr.Code
		case domainerrors.CodeNotFound:
			return http.StatusNotFound, domainErr.Code
		case domainerrors.CodeConflict:
			return http.StatusConflict, domainErr.Code
		case domainerrors.CodeInsufficientClients, domainerrors.CodeBudgetExhausted, domainerrors.CodeJobNotRunnable, domainerrors.CodeRoundInProgress:
			return http.StatusConflict, domainErr.Code
		default:
			return http.StatusInternalServerError, domainerrors.CodeInternal
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, domainerrors.CodeNotFound
	case errors.Is(err, domainerrors.ErrInvalidArgument):
		return http.StatusBadRequest, domainerrors.CodeValidation
	case errors.Is(err, domainerrors.ErrNotFound):
		return http.StatusNotFound, domainerrors.CodeNotFound
	case errors.Is(err, domainerrors.ErrConflict):
		return http.StatusConflict, domainerrors.CodeConflict
	case errors.Is(err, domainerrors.ErrPrecondition):
		return http.StatusConflict, domainerrors.CodeInternal
	default:
		return http.StatusInternalServerError, domainerrors.CodeInternal
	}
}

func RespondOK(c *gin.Context, payload gin.H) {
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, payload)
}
