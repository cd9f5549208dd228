package errors

import (
	stderrors "errors"
	"fmt"
)

// CatalogError is an error that knows how it is surfaced to API clients.
type CatalogError struct {
	Code string
	Msg  string
	Err  error
}

func (e *CatalogError) Error() string {
	return e.Msg
}

func (e *CatalogError) Status() int {
	return StatusForCode(e.Code)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func New(code string, format string, args ...any) *CatalogError {
	msg := fmt.Sprintf(format, args...)
	return &CatalogError{
		Code: code,
		Msg:  msg,
		Err:  stderrors.New(msg),
	}
}

// Wrap keeps err as the cause while presenting msg to clients.
func Wrap(err error, code string, format string, args ...any) *CatalogError {
	return &CatalogError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

func SongNotFound(id any) *CatalogError {
	return New(ErrNotFound, "Could not find song with id %v", id)
}

func FileNotFound(name any) *CatalogError {
	return New(ErrNotFound, "Could not find file %v", name)
}

func SchemaValidation(format string, args ...any) *CatalogError {
	return New(ErrSchemaValidation, format, args...)
}

func PayloadTooLarge(format string, args ...any) *CatalogError {
	return New(ErrPayloadTooLarge, format, args...)
}

func Conflict(format string, args ...any) *CatalogError {
	return New(ErrConflict, format, args...)
}

// CodeOf returns the code of the first CatalogError in err's chain, or
// ErrInternalServer when there is none.
func CodeOf(err error) string {
	var catalogErr *CatalogError
	if stderrors.As(err, &catalogErr) {
		return catalogErr.Code
	}
	return ErrInternalServer
}

// As extracts the first CatalogError in err's chain.
func As(err error) (*CatalogError, bool) {
	var catalogErr *CatalogError
	if stderrors.As(err, &catalogErr) {
		return catalogErr, true
	}
	return nil, false
}
