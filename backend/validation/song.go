// Package validation checks inbound write payloads before they reach the
// catalog. Failures are CatalogErrors with the schema validation code.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	apierrors "tuneful/backend/common/errors"

	"github.com/go-playground/validator/v10"
)

// FileRef names the file a song points at.
type FileRef struct {
	ID   *int64  `json:"id" validate:"required"`
	Name *string `json:"name" validate:"omitempty,max=128"`
}

// SongPayload is the body of POST and PUT /api/songs.
type SongPayload struct {
	ID   *int64   `json:"id"`
	File *FileRef `json:"file" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSong parses body and checks it against the song write contract:
// a JSON object with a "file" object holding an integer "id".
func ValidateSong(body []byte) (*SongPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apierrors.SchemaValidation("request body must be a JSON object")
	}

	var payload SongPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, decodeError(err)
	}

	if err := validate.Struct(&payload); err != nil {
		return nil, constraintError(err)
	}
	return &payload, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if idx := strings.LastIndex(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if field == "" {
			return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "request body must be a JSON object")
		}
		return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "'%s' must be %s", field, describeKind(typeErr.Type))
	}
	return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "request body is not valid JSON")
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "of type " + t.Kind().String()
	}
}

func constraintError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "%s", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "'%s' is a required property", fe.Field())
	case "max":
		return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "'%s' must be at most %s characters", fe.Field(), fe.Param())
	default:
		return apierrors.Wrap(err, apierrors.ErrSchemaValidation, "'%s' failed the %s constraint", fe.Field(), fe.Tag())
	}
}

// RequireName returns the trimmed file name or a validation error when the
// payload does not carry a usable one.
func (r *FileRef) RequireName() (string, error) {
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return "", apierrors.SchemaValidation("'name' is a required property")
	}
	return strings.TrimSpace(*r.Name), nil
}
