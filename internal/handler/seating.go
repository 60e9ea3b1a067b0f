package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seating/internal/model"
	"github.com/iliyamo/event-seating/internal/repository"
	"github.com/iliyamo/event-seating/internal/seating"
	"github.com/iliyamo/event-seating/internal/service"
)

// SeatingRunner runs automatic and manual seating.
type SeatingRunner interface {
	AutoAssign(ctx context.Context, eventID uint64, keepExisting bool) (*service.RunSummary, error)
	Move(ctx context.Context, eventID uint64, moves []repository.GuestMove) error
}

// SeatingHandler serves the seating overview and both seating write paths.
// All routes sit behind RequireEvent.
type SeatingHandler struct {
	Tables  TableStore
	Guests  GuestStore
	Seating SeatingRunner
}

// NewSeatingHandler constructs a SeatingHandler and panics on nil dependencies.
func NewSeatingHandler(tables TableStore, guests GuestStore, runner SeatingRunner) *SeatingHandler {
	if tables == nil || guests == nil || runner == nil {
		panic("nil dependency passed to NewSeatingHandler")
	}
	return &SeatingHandler{Tables: tables, Guests: guests, Seating: runner}
}

// Overview handles GET /v1/events/:id/seating.  Tables come in name,id
// order and declined guests are listed but never counted as unseated.
func (h *SeatingHandler) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := eventIDFrom(c)
	tables, err := h.Tables.ListByEvent(ctx, eventID)
	if err != nil {
		return internalError(c, "failed to load seating", err)
	}
	guests, err := h.Guests.ListByEvent(ctx, eventID)
	if err != nil {
		return internalError(c, "failed to load seating", err)
	}
	seated, unseated, capacity := 0, 0, 0
	for _, t := range tables {
		capacity += t.Capacity
	}
	for _, g := range guests {
		switch {
		case g.TableID != nil:
			seated++
		case g.RSVPStatus != model.RSVPDeclined:
			unseated++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"tables":   tables,
		"guests":   guests,
		"summary": map[string]int{
			"capacity": capacity,
			"seated":   seated,
			"unseated": unseated,
		},
	})
}

// Move handles POST /v1/events/:id/seating.  The body is either a single
// move {"guest_id": 1, "table_id": 2} or a batch {"moves": [...]}.  A null
// table_id unseats the guest.  Moved guests lose their seat number.
func (h *SeatingHandler) Move(c echo.Context) error {
	var body struct {
		GuestID uint64                 `json:"guest_id"`
		TableID *uint64                `json:"table_id"`
		Moves   []repository.GuestMove `json:"moves"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	moves := body.Moves
	if len(moves) == 0 {
		if body.GuestID == 0 {
			return errorJSON(c, http.StatusBadRequest, "guest_id or moves is required")
		}
		moves = []repository.GuestMove{{GuestID: body.GuestID, TableID: body.TableID}}
	}
	for _, m := range moves {
		if m.GuestID == 0 || (m.TableID != nil && *m.TableID == 0) {
			return errorJSON(c, http.StatusBadRequest, "guest_id and table_id must be positive")
		}
	}

	err := h.Seating.Move(c.Request().Context(), eventIDFrom(c), moves)
	switch {
	case errors.Is(err, service.ErrSeatingBusy):
		return errorJSON(c, http.StatusConflict, "seating run in progress, try again")
	case repository.IsNotFound(err):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrOverCapacity):
		return errorJSON(c, http.StatusConflict, "table is full")
	case err != nil:
		return internalError(c, "could not move guests", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "moved": len(moves)})
}

// AutoAssign handles POST /v1/events/:id/seating/auto with an optional
// body {"keep_existing": bool}.
func (h *SeatingHandler) AutoAssign(c echo.Context) error {
	var body struct {
		KeepExisting bool `json:"keep_existing"`
	}
	if err := c.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	sum, err := h.Seating.AutoAssign(c.Request().Context(), eventIDFrom(c), body.KeepExisting)
	switch {
	case errors.Is(err, service.ErrSeatingBusy):
		return errorJSON(c, http.StatusConflict, "seating run already in progress")
	case errors.Is(err, seating.ErrNoTables):
		return errorJSON(c, http.StatusUnprocessableEntity, "event has no usable tables")
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrOverCapacity):
		return errorJSON(c, http.StatusConflict, "seating changed during the run, try again")
	case errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusServiceUnavailable, "seating run timed out")
	case err != nil:
		return internalError(c, "seating run failed", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":             true,
		"run_id":         sum.RunID,
		"assigned":       sum.Assigned,
		"unassigned":     sum.Unassigned,
		"status":         sum.Status,
		"assignments":    sum.Assignments,
		"unassigned_ids": sum.UnassignedIDs,
		"table_counts":   sum.TableCounts,
	})
}
