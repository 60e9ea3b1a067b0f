package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seating/internal/model"
	"github.com/iliyamo/event-seating/internal/repository"
)

// EventStore is the event persistence used by EventHandler.
type EventStore interface {
	EventLookup
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
}

// HouseholdStore is the household persistence used by EventHandler.
type HouseholdStore interface {
	Create(ctx context.Context, h *model.Household) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Household, error)
}

// EventHandler serves events and their households.
type EventHandler struct {
	Events     EventStore
	Households HouseholdStore
}

// NewEventHandler constructs an EventHandler and panics on nil dependencies.
func NewEventHandler(events EventStore, households HouseholdStore) *EventHandler {
	if events == nil || households == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Households: households}
}

// parseEventDate accepts RFC 3339 timestamps or plain dates.
func parseEventDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("event_date must be RFC 3339 or YYYY-MM-DD")
}

func optionalText(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// CreateEvent handles POST /v1/events.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var body struct {
		Title     string  `json:"title"`
		EventDate *string `json:"event_date"`
		Venue     *string `json:"venue"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return errorJSON(c, http.StatusBadRequest, "title is required")
	}
	ev := &model.Event{Title: title, Venue: optionalText(body.Venue)}
	if body.EventDate != nil {
		d, err := parseEventDate(*body.EventDate)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		ev.EventDate = d
	}
	if err := h.Events.Create(c.Request().Context(), ev); err != nil {
		return internalError(c, "could not create event", err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// ListEvents handles GET /v1/events.
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to list events", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid event id")
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return errorJSON(c, http.StatusNotFound, "event not found")
		}
		return internalError(c, "failed to load event", err)
	}
	return c.JSON(http.StatusOK, ev)
}

// CreateHousehold handles POST /v1/events/:id/households.
func (h *EventHandler) CreateHousehold(c echo.Context) error {
	var body struct {
		Name  string  `json:"name"`
		Group *string `json:"group"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}
	hh := &model.Household{EventID: eventIDFrom(c), Name: name, Group: optionalText(body.Group)}
	if err := h.Households.Create(c.Request().Context(), hh); err != nil {
		return internalError(c, "could not create household", err)
	}
	return c.JSON(http.StatusCreated, hh)
}

// ListHouseholds handles GET /v1/events/:id/households.
func (h *EventHandler) ListHouseholds(c echo.Context) error {
	items, err := h.Households.ListByEvent(c.Request().Context(), eventIDFrom(c))
	if err != nil {
		return internalError(c, "failed to list households", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}
