package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/domain/loader"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

// KindLoaderRejected is reported when the loader refuses submitted code
const KindLoaderRejected = "loader_rejected"

// StatusFor maps an error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotAComputePlatform):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrModuleNameClash), errors.Is(err, registry.ErrImmutablePackage):
		return http.StatusConflict
	case registry.IsRuleViolation(err), isLoaderRejection(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, code.ErrAccountNotFound), errors.Is(err, code.ErrPackageNotFound):
		return http.StatusNotFound
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isLoaderRejection(err error) bool {
	return errors.Is(err, loader.ErrRejected) ||
		errors.Is(err, loader.ErrCodeCountMismatch) ||
		errors.Is(err, loader.ErrEmptyModule)
}

func writeError(c *gin.Context, err error) {
	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	if kind := registry.Kind(err); kind != "" {
		body["kind"] = kind
		body["abort_code"] = registry.Code(err)
	} else if isLoaderRejection(err) {
		body["kind"] = KindLoaderRejected
	}
	c.JSON(StatusFor(err), body)
}
