package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seating/internal/model"
	"github.com/iliyamo/event-seating/internal/repository"
)

// GuestStore is the guest persistence used by GuestHandler.
type GuestStore interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Guest, error)
	Create(ctx context.Context, g *model.Guest) error
	Update(ctx context.Context, id, eventID uint64, u repository.GuestUpdate) (*model.Guest, error)
	Delete(ctx context.Context, id, eventID uint64) error
}

// GuestHandler serves the guests of an event.  All routes sit behind
// RequireEvent.
type GuestHandler struct {
	Guests GuestStore
}

// NewGuestHandler constructs a GuestHandler and panics on nil dependencies.
func NewGuestHandler(guests GuestStore) *GuestHandler {
	if guests == nil {
		panic("nil store passed to NewGuestHandler")
	}
	return &GuestHandler{Guests: guests}
}

func normalizeRSVP(s string) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	return v, model.ValidRSVP(v)
}

// ListGuests handles GET /v1/events/:id/guests.
func (h *GuestHandler) ListGuests(c echo.Context) error {
	guests, err := h.Guests.ListByEvent(c.Request().Context(), eventIDFrom(c))
	if err != nil {
		return internalError(c, "failed to list guests", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": guests})
}

// CreateGuest handles POST /v1/events/:id/guests.  New guests are unseated.
func (h *GuestHandler) CreateGuest(c echo.Context) error {
	var body struct {
		FullName    string  `json:"full_name"`
		Group       *string `json:"group"`
		HouseholdID *uint64 `json:"household_id"`
		RSVPStatus  string  `json:"rsvp_status"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(body.FullName)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "full_name is required")
	}
	rsvp := model.RSVPPending
	if strings.TrimSpace(body.RSVPStatus) != "" {
		v, ok := normalizeRSVP(body.RSVPStatus)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "rsvp_status must be PENDING, CONFIRMED or DECLINED")
		}
		rsvp = v
	}
	householdID := body.HouseholdID
	if householdID != nil && *householdID == 0 {
		householdID = nil
	}
	g := &model.Guest{
		EventID:     eventIDFrom(c),
		FullName:    name,
		Group:       optionalText(body.Group),
		HouseholdID: householdID,
		RSVPStatus:  rsvp,
	}
	if err := h.Guests.Create(c.Request().Context(), g); err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return errorJSON(c, http.StatusNotFound, "household not found")
		}
		return internalError(c, "could not create guest", err)
	}
	return c.JSON(http.StatusCreated, g)
}

// UpdateGuest handles PATCH /v1/events/:id/guests/:gid.  An empty group
// clears the tag and household_id 0 clears the household link.
func (h *GuestHandler) UpdateGuest(c echo.Context) error {
	gid, ok := parseID(c, "gid")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid guest id")
	}
	var body struct {
		FullName    *string `json:"full_name"`
		Group       *string `json:"group"`
		HouseholdID *uint64 `json:"household_id"`
		RSVPStatus  *string `json:"rsvp_status"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	u := repository.GuestUpdate{HouseholdID: body.HouseholdID}
	if body.FullName != nil {
		name := strings.TrimSpace(*body.FullName)
		if name == "" {
			return errorJSON(c, http.StatusBadRequest, "full_name cannot be empty")
		}
		u.FullName = &name
	}
	if body.Group != nil {
		grp := strings.TrimSpace(*body.Group)
		u.Group = &grp
	}
	if body.RSVPStatus != nil {
		v, ok := normalizeRSVP(*body.RSVPStatus)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "rsvp_status must be PENDING, CONFIRMED or DECLINED")
		}
		u.RSVPStatus = &v
	}
	g, err := h.Guests.Update(c.Request().Context(), gid, eventIDFrom(c), u)
	switch {
	case errors.Is(err, repository.ErrGuestNotFound):
		return errorJSON(c, http.StatusNotFound, "guest not found")
	case errors.Is(err, repository.ErrHouseholdNotFound):
		return errorJSON(c, http.StatusNotFound, "household not found")
	case err != nil:
		return internalError(c, "could not update guest", err)
	}
	return c.JSON(http.StatusOK, g)
}

// DeleteGuest handles DELETE /v1/events/:id/guests/:gid.
func (h *GuestHandler) DeleteGuest(c echo.Context) error {
	gid, ok := parseID(c, "gid")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid guest id")
	}
	if err := h.Guests.Delete(c.Request().Context(), gid, eventIDFrom(c)); err != nil {
		if errors.Is(err, repository.ErrGuestNotFound) {
			return errorJSON(c, http.StatusNotFound, "guest not found")
		}
		return internalError(c, "could not delete guest", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
