package server

import (
	"errors"
	"net/http"

	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/source"
	"github.com/agenthands/annuaire/internal/store"
)

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrNoInput),
		errors.Is(err, source.ErrFetch),
		errors.Is(err, source.ErrDecode),
		errors.Is(err, store.ErrMissingKey),
		errors.Is(err, record.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
