package errors

import "net/http"

const (
	ErrInternalServer       = "ERR_INTERNAL_SERVER"
	ErrNotFound             = "ERR_NOT_FOUND"
	ErrSchemaValidation     = "ERR_SCHEMA_VALIDATION"
	ErrUnacceptableMedia    = "ERR_UNACCEPTABLE_MEDIA"
	ErrUnsupportedMediaType = "ERR_UNSUPPORTED_MEDIA_TYPE"
	ErrMissingUploadField   = "ERR_MISSING_UPLOAD_FIELD"
	ErrConflict             = "ERR_CONFLICT"
	ErrPayloadTooLarge      = "ERR_PAYLOAD_TOO_LARGE"
)

var statusByCode = map[string]int{
	ErrInternalServer:       http.StatusInternalServerError,
	ErrNotFound:             http.StatusNotFound,
	ErrSchemaValidation:     http.StatusUnprocessableEntity,
	ErrUnacceptableMedia:    http.StatusNotAcceptable,
	ErrUnsupportedMediaType: http.StatusUnsupportedMediaType,
	ErrMissingUploadField:   http.StatusUnprocessableEntity,
	ErrConflict:             http.StatusConflict,
	ErrPayloadTooLarge:      http.StatusRequestEntityTooLarge,
}

// StatusForCode returns the HTTP status an error code is surfaced with.
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
