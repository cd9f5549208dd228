package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSongNotFoundMessage(t *testing.T) {
	err := SongNotFound(7)
	assert.Equal(t, "Could not find song with id 7", err.Error())
	assert.Equal(t, http.StatusNotFound, err.Status())
	assert.Equal(t, ErrNotFound, CodeOf(err))
}

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update song: %w", Conflict("File with id %d already belongs to song %d", 1, 2))
	assert.Equal(t, ErrConflict, CodeOf(err))
	assert.Equal(t, ErrInternalServer, CodeOf(stderrors.New("boom")))

	catalogErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, catalogErr.Status())
	assert.Equal(t, "File with id 1 already belongs to song 2", catalogErr.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, ErrInternalServer, "could not store %s", "a.mp3")
	assert.Equal(t, "could not store a.mp3", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForCode(ErrSchemaValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForCode(ErrMissingUploadField))
	assert.Equal(t, http.StatusNotAcceptable, StatusForCode(ErrUnacceptableMedia))
	assert.Equal(t, http.StatusUnsupportedMediaType, StatusForCode(ErrUnsupportedMediaType))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusForCode(ErrPayloadTooLarge))
	assert.Equal(t, http.StatusInternalServerError, StatusForCode("UNKNOWN"))
}
