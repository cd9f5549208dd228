package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"tuneful/backend/api/middleware"
	"tuneful/backend/common"
	apierrors "tuneful/backend/common/errors"
	"tuneful/backend/service"
	"tuneful/backend/validation"

	"github.com/gin-gonic/gin"
)

type SongHandler struct {
	catalog *service.Catalog
}

func NewSongHandler(catalog *service.Catalog) *SongHandler {
	return &SongHandler{catalog: catalog}
}

// parseSongId treats a non-numeric id like an unknown one.
func parseSongId(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		common.RespError(c, apierrors.SongNotFound(raw))
		return 0, false
	}
	return id, true
}

// maxSongPayloadBytes caps a song body after any gzip decoding.
const maxSongPayloadBytes = 64 << 10

func readSongPayload(c *gin.Context) (*validation.SongPayload, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSongPayloadBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		common.RespError(c, apierrors.PayloadTooLarge("Request body must not exceed %d bytes", tooLarge.Limit))
		return nil, false
	}
	if err != nil {
		common.RespError(c, fmt.Errorf("read request body: %w", err))
		return nil, false
	}
	payload, err := validation.ValidateSong(body)
	if err != nil {
		common.RespError(c, err)
		return nil, false
	}
	return payload, true
}

func (h *SongHandler) GetSongs(c *gin.Context) {
	songs, err := h.catalog.ListSongs(middleware.Session(c))
	if err != nil {
		common.RespError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (h *SongHandler) GetSong(c *gin.Context) {
	id, ok := parseSongId(c)
	if !ok {
		return
	}
	data, err := h.catalog.GetSong(c.Request.Context(), middleware.Session(c), id)
	if err != nil {
		common.RespError(c, err)
		return
	}
	common.RespJSONWithETag(c, http.StatusOK, data)
}

func (h *SongHandler) CreateSong(c *gin.Context) {
	payload, ok := readSongPayload(c)
	if !ok {
		return
	}
	song, err := h.catalog.CreateSong(middleware.Session(c), payload)
	if err != nil {
		common.RespError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/songs/%d", song.ID))
	c.JSON(http.StatusCreated, song.AsDictionary())
}

func (h *SongHandler) UpdateSong(c *gin.Context) {
	id, ok := parseSongId(c)
	if !ok {
		return
	}
	payload, ok := readSongPayload(c)
	if !ok {
		return
	}
	song, err := h.catalog.UpdateSong(c.Request.Context(), middleware.Session(c), id, payload)
	if err != nil {
		common.RespError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, song.AsDictionary())
}

func (h *SongHandler) DeleteSong(c *gin.Context) {
	id, ok := parseSongId(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteSong(c.Request.Context(), middleware.Session(c), id); err != nil {
		common.RespError(c, err)
		return
	}
	common.RespMessage(c, http.StatusOK, fmt.Sprintf("Song with id %d is deleted", id))
}
