package handlers

import (
	"errors"
	"net/http"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/document"
	"pen-tool/internal/pen/group"
	"pen-tool/internal/pen/parser"
	"pen-tool/internal/pen/service"
	"pen-tool/internal/pen/store"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return errBadRequest }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownSession),
		errors.Is(err, curve.ErrUnknownCurveID),
		errors.Is(err, store.ErrUnknownGroupID),
		errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrSelfLatch),
		errors.Is(err, store.ErrEdgeOccupied),
		errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict

	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidAnchor),
		errors.Is(err, group.ErrEmptySelection),
		errors.Is(err, group.ErrDisconnectedCurves),
		errors.Is(err, parser.ErrEmptyPath),
		errors.Is(err, parser.ErrMalformedPath),
		errors.Is(err, parser.ErrUnsupportedCommand),
		errors.Is(err, parser.ErrMalformedSVG),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, document.ErrUnsupportedVersion),
		errors.Is(err, document.ErrBrokenLatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("[PEN] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
