// Package router registers the HTTP routes of the seating API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seating/internal/config"
	"github.com/iliyamo/event-seating/internal/handler"
	"github.com/iliyamo/event-seating/internal/middleware"
)

// Deps bundles what the routes need.  Redis may be nil, which disables
// rate limiting and response caching.
type Deps struct {
	Events   *handler.EventHandler
	Tables   *handler.TableHandler
	Guests   *handler.GuestHandler
	Seating  *handler.SeatingHandler
	Lookup   handler.EventLookup
	DB       handler.Pinger
	Redis    *redis.Client
	Cache    *middleware.EventCache
	RateCfg  config.RateLimitConfig
	CacheCfg config.CacheConfig
	Logger   *zap.Logger
}

// RegisterRoutes registers liveness, readiness and metrics endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI registers the /v1 API.  Every route under /v1/events/:id
// checks that the event exists; mutating routes there drop the event's
// cached overview on success.
func RegisterAPI(e *echo.Echo, d Deps) {
	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateCfg, d.Redis, d.Logger))

	v1.POST("/events", d.Events.CreateEvent)
	v1.GET("/events", d.Events.ListEvents)
	v1.GET("/events/:id", d.Events.GetEvent)

	ev := v1.Group("/events/:id", handler.RequireEvent(d.Lookup), middleware.InvalidateOnWrite(d.Cache))

	ev.GET("/households", d.Events.ListHouseholds)
	ev.POST("/households", d.Events.CreateHousehold)

	ev.GET("/tables", d.Tables.ListTables)
	ev.POST("/tables", d.Tables.CreateTable)
	ev.PATCH("/tables/:tid", d.Tables.UpdateTable)
	ev.DELETE("/tables/:tid", d.Tables.DeleteTable)

	ev.GET("/guests", d.Guests.ListGuests)
	ev.POST("/guests", d.Guests.CreateGuest)
	ev.PATCH("/guests/:gid", d.Guests.UpdateGuest)
	ev.DELETE("/guests/:gid", d.Guests.DeleteGuest)

	ev.GET("/seating", d.Seating.Overview, middleware.NewRedisCache(d.CacheCfg, d.Redis))
	ev.POST("/seating", d.Seating.Move)
	ev.POST("/seating/auto", d.Seating.AutoAssign)
}
