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

// TableStore is the table persistence used by TableHandler.
type TableStore interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Table, error)
	Create(ctx context.Context, t *model.Table) error
	Update(ctx context.Context, id, eventID uint64, name *string, capacity *int) (*model.Table, error)
	Delete(ctx context.Context, id, eventID uint64) (int64, error)
}

// TableHandler serves the tables of an event.  All routes sit behind
// RequireEvent.
type TableHandler struct {
	Tables TableStore
}

// NewTableHandler constructs a TableHandler and panics on nil dependencies.
func NewTableHandler(tables TableStore) *TableHandler {
	if tables == nil {
		panic("nil store passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables}
}

func tableName(raw string) string {
	if name := strings.TrimSpace(raw); name != "" {
		return name
	}
	return model.DefaultTableName
}

// ListTables handles GET /v1/events/:id/tables.
func (h *TableHandler) ListTables(c echo.Context) error {
	tables, err := h.Tables.ListByEvent(c.Request().Context(), eventIDFrom(c))
	if err != nil {
		return internalError(c, "failed to list tables", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": tables})
}

// CreateTable handles POST /v1/events/:id/tables.  A blank name becomes
// "Table" and a missing capacity becomes 10.
func (h *TableHandler) CreateTable(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Capacity *int   `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	capacity := model.DefaultTableCapacity
	if body.Capacity != nil {
		capacity = *body.Capacity
	}
	if capacity < 1 {
		return errorJSON(c, http.StatusBadRequest, "capacity must be at least 1")
	}
	t := &model.Table{EventID: eventIDFrom(c), Name: tableName(body.Name), Capacity: capacity}
	if err := h.Tables.Create(c.Request().Context(), t); err != nil {
		return internalError(c, "could not create table", err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable handles PATCH /v1/events/:id/tables/:tid.
func (h *TableHandler) UpdateTable(c echo.Context) error {
	tid, ok := parseID(c, "tid")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid table id")
	}
	var body struct {
		Name     *string `json:"name"`
		Capacity *int    `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	var name *string
	if body.Name != nil {
		n := tableName(*body.Name)
		name = &n
	}
	if body.Capacity != nil && *body.Capacity < 1 {
		return errorJSON(c, http.StatusBadRequest, "capacity must be at least 1")
	}
	t, err := h.Tables.Update(c.Request().Context(), tid, eventIDFrom(c), name, body.Capacity)
	switch {
	case errors.Is(err, repository.ErrTableNotFound):
		return errorJSON(c, http.StatusNotFound, "table not found")
	case errors.Is(err, repository.ErrOverCapacity):
		return errorJSON(c, http.StatusConflict, "capacity is below the number of seated guests")
	case err != nil:
		return internalError(c, "could not update table", err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/events/:id/tables/:tid.  Guests seated at
// the table become unseated.
func (h *TableHandler) DeleteTable(c echo.Context) error {
	tid, ok := parseID(c, "tid")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid table id")
	}
	unseated, err := h.Tables.Delete(c.Request().Context(), tid, eventIDFrom(c))
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return errorJSON(c, http.StatusNotFound, "table not found")
		}
		return internalError(c, "could not delete table", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "unseated": unseated})
}
