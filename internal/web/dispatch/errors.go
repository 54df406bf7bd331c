package dispatch

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/navigation"
	"github.com/conduit-lang/metarest/internal/web/router"
)

// errorCodes are the response codes of navigation failures answered with 400
var errorCodes = map[navigation.Kind]string{
	navigation.KindInvalidPath:           "INVALID_PATH",
	navigation.KindAttributeAccess:       "ATTRIBUTE_ACCESS_ERROR",
	navigation.KindUnsupportedConversion: "UNSUPPORTED_CONVERSION",
}

// fail maps err to a response. Unknown types and absent values are 404 with
// no body; other navigation failures are 400 with a diagnostic body.
func (d *Dispatcher) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := d.log(r.Context())

	var navErr *navigation.Error
	if errors.As(err, &navErr) {
		switch navErr.Kind {
		case navigation.KindUnknownType, navigation.KindNotFound:
			logger.Debug("not found", zap.String("segment", navErr.Segment), zap.Error(err))
			w.WriteHeader(http.StatusNotFound)
			return
		}

		router.WriteErrorWithDetails(w, r, http.StatusBadRequest, errorCodes[navErr.Kind], navErr.Error(),
			map[string]interface{}{
				"segment":  navErr.Segment,
				"position": navErr.Position,
				"kind":     navErr.Kind.String(),
			})
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request deadline exceeded", zap.Error(err))
		router.WriteError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "The request took too long to resolve")
	case errors.Is(err, context.Canceled):
		logger.Debug("request cancelled", zap.Error(err))
	default:
		logger.Error("request failed", zap.Error(err))
		router.InternalServerError(w, r, err, d.config.ShowDetails)
	}
}
