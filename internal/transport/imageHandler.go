package transport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/ds124wfegd/WB_L3/position/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

// Origin returns the bounded-fit preview as raw JPEG.
func (h *ImageHandler) Origin(c *gin.Context) {
	raw, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.transform(c, raw, entity.ModeOrigin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, result.MediaType, result.Bytes)
}

// Resize crops to the cover size using the anchor named by the position field.
func (h *ImageHandler) Resize(c *gin.Context) {
	raw, mode, err := h.readUploadWithPosition(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.transform(c, raw, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, result.MediaType, result.Bytes)
}

// TransformJSON answers with a data URL for clients that render the result inline.
func (h *ImageHandler) TransformJSON(c *gin.Context) {
	raw, mode, err := h.readUploadWithPosition(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.transform(c, raw, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.TransformResponse{
		Image:     "data:" + result.MediaType + ";base64," + base64.StdEncoding.EncodeToString(result.Bytes),
		MediaType: result.MediaType,
		Width:     result.Width,
		Height:    result.Height,
		Position:  mode.String(),
	})
}

func (h *ImageHandler) Positions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": entity.PositionNames()})
}

func (h *ImageHandler) transform(c *gin.Context, raw []byte, mode entity.AnchorMode) (*entity.EncodedResult, error) {
	return h.service.Transform(c.Request.Context(), entity.TransformRequest{
		RequestID: middleware.RequestIDFrom(c),
		Image:     raw,
		Mode:      mode,
	})
}

func (h *ImageHandler) readUploadWithPosition(c *gin.Context) ([]byte, entity.AnchorMode, error) {
	raw, err := h.readUpload(c)
	if err != nil {
		return nil, entity.AnchorMode{}, err
	}

	mode, err := entity.ParseAnchorMode(c.PostForm("position"))
	if err != nil {
		return nil, entity.AnchorMode{}, err
	}
	return raw, mode, nil
}

// readUpload takes the image from the "file" field, falling back to "image".
// The body is capped so an oversized upload is never buffered in full.
func (h *ImageHandler) readUpload(c *gin.Context) ([]byte, error) {
	if c.Request.ContentLength > h.maxUpload+multipartOverhead {
		return nil, fmt.Errorf("%w: request body is %d bytes", entity.ErrPayloadTooLarge, c.Request.ContentLength)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	file, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		file, err = c.FormFile("image")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: limit is %d bytes", entity.ErrPayloadTooLarge, h.maxUpload)
		}
		return nil, fmt.Errorf("%w: image file is required", entity.ErrMissingInput)
	}

	if file.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d", entity.ErrPayloadTooLarge, file.Size, h.maxUpload)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", entity.ErrInternal, err)
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, h.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", entity.ErrInternal, err)
	}
	if int64(len(raw)) > h.maxUpload {
		return nil, fmt.Errorf("%w: limit is %d bytes", entity.ErrPayloadTooLarge, h.maxUpload)
	}
	return raw, nil
}
