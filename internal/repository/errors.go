// Package repository defines data access for events, tables, households
// and guests, plus the transactional seating write paths.  Sentinel errors
// below let handlers map storage outcomes onto HTTP responses.
package repository

import (
	"errors"
	"strings"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrGuestNotFound     = errors.New("guest not found")
	ErrHouseholdNotFound = errors.New("household not found")
)

// ErrConflict is returned when a write cannot be applied because the
// stored state changed underneath it, for example a guest seated by a
// concurrent manual move while an automatic run was computing.  Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrOverCapacity is returned when a write would seat more guests at a
// table than its capacity allows.
var ErrOverCapacity = errors.New("table over capacity")

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// uint64Args converts ids into query arguments.
func uint64Args(ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
