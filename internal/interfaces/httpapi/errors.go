package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/pkg/api"
	"github.com/labstack/echo/v4"
)

// Kinds raised by the transport itself rather than the domain.
const (
	kindBadRequest       = "BadRequest"
	kindMethodNotAllowed = "MethodNotAllowed"
	kindRateLimited      = "RateLimited"
	kindTimeout          = "Timeout"
)

var statusByKind = map[domain.Kind]int{
	domain.KindUnknownCountry:       http.StatusBadRequest,
	domain.KindUnknownItem:          http.StatusBadRequest,
	domain.KindMissingRequiredField: http.StatusBadRequest,
	domain.KindInvalidFieldFormat:   http.StatusBadRequest,
	domain.KindUnauthenticated:      http.StatusUnauthorized,
	domain.KindUnknownIdentity:      http.StatusUnauthorized,
	domain.KindAccountLocked:        http.StatusForbidden,
	domain.KindAccessDenied:         http.StatusForbidden,
	domain.KindNotFound:             http.StatusNotFound,
	domain.KindInjectedFault:        http.StatusInternalServerError,
	domain.KindUnknownCurrency:      http.StatusInternalServerError,
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	body := s.errorBody(err, c)

	if body.StatusCode == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if body.Error == string(domain.KindInjectedFault) {
		s.metrics.InjectedFaults.WithLabelValues(string(sessionFrom(c).Behavior)).Inc()
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(body.StatusCode)
	} else {
		werr = c.JSON(body.StatusCode, body)
	}
	if werr != nil {
		s.logger.Error("failed to write error response", slog.Any("error", werr))
	}
}

func (s *Server) errorBody(err error, c echo.Context) api.ErrorResponse {
	body := api.ErrorResponse{Timestamp: s.now()}

	var de *domain.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &de):
		status, ok := statusByKind[de.Kind]
		if !ok {
			return s.internalError(err, c, body)
		}
		body.StatusCode = status
		body.Error = string(de.Kind)
		body.Message = de.Message
		body.Field = de.Field
	case errors.As(err, &he):
		body.StatusCode = he.Code
		body.Error = kindForStatus(he.Code)
		body.Message = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			body.Message = msg
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		body.StatusCode = http.StatusServiceUnavailable
		body.Error = kindTimeout
		body.Message = "request was cancelled before it completed"
	default:
		return s.internalError(err, c, body)
	}
	if body.StatusCode >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			slog.String("kind", body.Error),
			slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			slog.String("error", err.Error()))
	}
	return body
}

func (s *Server) internalError(err error, c echo.Context, body api.ErrorResponse) api.ErrorResponse {
	s.logger.Error("internal error",
		slog.String("method", c.Request().Method),
		slog.String("uri", c.Request().RequestURI),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		slog.Any("error", err))
	body.StatusCode = http.StatusInternalServerError
	body.Error = string(domain.KindInternal)
	body.Message = "Internal server error"
	return body
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusUnauthorized:
		return string(domain.KindUnauthenticated)
	case http.StatusForbidden:
		return string(domain.KindAccessDenied)
	case http.StatusMethodNotAllowed:
		return kindMethodNotAllowed
	case http.StatusTooManyRequests:
		return kindRateLimited
	}
	if code >= http.StatusInternalServerError {
		return string(domain.KindInternal)
	}
	return kindBadRequest
}
