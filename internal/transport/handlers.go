package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/ds124wfegd/WB_L3/position/internal/service"
	"github.com/gin-gonic/gin"
)

// multipartOverhead covers boundaries and the position field on top of the file itself.
const multipartOverhead = 64 << 10

type ImageHandler struct {
	service   service.ImageService
	maxUpload int64
}

func NewImageHandler(service service.ImageService, maxUpload int64) *ImageHandler {
	return &ImageHandler{service: service, maxUpload: maxUpload}
}

// respondError is the only place an error becomes a response. Server-side
// failures never leak their cause to the client.
func respondError(c *gin.Context, err error) {
	kind := entity.KindOf(err)
	status := kind.HTTPStatus()

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = kind.Message()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, entity.ErrorResponse{
		ErrorKind: string(kind),
		Error:     message,
		Status:    status,
	})
}

func recovered(c *gin.Context, rec any) {
	respondError(c, errors.New("panic recovered"))
}
