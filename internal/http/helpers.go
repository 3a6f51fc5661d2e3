package http

import (
	"errors"
	"net/http"
	"strings"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusForError maps service errors onto HTTP status codes. Anything not a
// query error is the backend's fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidWindow),
		errors.Is(err, core.ErrInvalidVoucherType),
		errors.Is(err, ledger.ErrInvalidQuery):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
