package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns on purpose unwraps to one of
// these, so the transport layer can pick a status code with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func notFound(msg string) error     { return &kindError{kind: ErrNotFound, msg: msg} }
func badRequest(msg string) error   { return &kindError{kind: ErrBadRequest, msg: msg} }
func forbidden(msg string) error    { return &kindError{kind: ErrForbidden, msg: msg} }
func conflict(msg string) error     { return &kindError{kind: ErrConflict, msg: msg} }
func unauthorized(msg string) error { return &kindError{kind: ErrUnauthorized, msg: msg} }

func badRequestf(format string, args ...any) error {
	return badRequest(fmt.Sprintf(format, args...))
}

// invalid turns a domain validation error into a BadRequest carrying its message.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrBadRequest, msg: err.Error()}
}
