package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seating/internal/logger"
)

const ctxEventID = "event_id"

// EventLookup reports whether an event exists.
type EventLookup interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// errorJSON writes {"error": msg} with the given status.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// internalError logs err and answers 500 with a generic message.
func internalError(c echo.Context, msg string, err error) error {
	logger.L().Error(msg,
		zap.String("route", c.Path()),
		zap.Any("request_id", c.Get("request_id")),
		zap.Error(err),
	)
	return errorJSON(c, http.StatusInternalServerError, msg)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// RequireEvent resolves :id, answers 400/404 for bad or unknown events and
// stores the id for the handlers behind it.
func RequireEvent(events EventLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := parseID(c, "id")
			if !ok {
				return errorJSON(c, http.StatusBadRequest, "invalid event id")
			}
			found, err := events.Exists(c.Request().Context(), id)
			if err != nil {
				return internalError(c, "failed to load event", err)
			}
			if !found {
				return errorJSON(c, http.StatusNotFound, "event not found")
			}
			c.Set(ctxEventID, id)
			return next(c)
		}
	}
}

// eventIDFrom returns the id stored by RequireEvent.
func eventIDFrom(c echo.Context) uint64 {
	id, _ := c.Get(ctxEventID).(uint64)
	return id
}
