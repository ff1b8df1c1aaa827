// Package handler defines the HTTP boundary. Handlers translate
// request payloads into service calls and map domain error kinds onto
// status codes; nothing below this layer writes to the response.
package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/gateway"
	"github.com/sati-centro/consulta-booking/internal/service"
)

// getUserID extracts the user_id placed in context by the JWTAuth
// middleware and converts it to uint64. JWT numeric claims arrive as
// float64 after JSON decoding, hence the type switch.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated request carries the admin
// role claim.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// statusFor maps a domain error kind to its HTTP status. Policy
// rejections are 400s with a human-readable reason; only not-found,
// forbidden and conflicts differ.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindResourceNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindResourceConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// writeError is the single error boundary. Typed domain errors become
// structured 4xx responses; card-processor failures (API errors and
// transport errors alike) answer 502 so callers can tell an upstream
// outage from a local fault; anything else is logged with context and
// surfaced as a generic 500 so internals never leak to the caller.
func writeError(c echo.Context, err error) error {
	if svcErr := service.AsError(err); svcErr != nil {
		return c.JSON(statusFor(svcErr.Kind), echo.Map{
			"error": svcErr.Message,
			"code":  string(svcErr.Kind),
		})
	}
	var apiErr *gateway.APIError
	var netErr *url.Error
	if errors.As(err, &apiErr) || errors.As(err, &netErr) {
		log.Printf("handler: %s %s gateway failure: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}
	log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
