package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/service"
	"github.com/noah-isme/pchs-registration-api/pkg/response"
)

type photoOpener interface {
	Open(token string) (*service.PhotoDownload, error)
}

// PhotoHandler streams stored passport photos behind signed links.
type PhotoHandler struct {
	photos photoOpener
}

// NewPhotoHandler constructs the handler.
func NewPhotoHandler(photos photoOpener) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Serve godoc
// @Summary Download a passport photo via signed token
// @Tags Photos
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploads/photos/{token} [get]
func (h *PhotoHandler) Serve(c *gin.Context) {
	photo, err := h.photos.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer photo.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", photo.Filename))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, photo.SizeBytes, photo.ContentType, photo.File, nil)
}
