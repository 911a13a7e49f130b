package article

import (
	"net/http"
	"strings"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const imageField = "image"

// POST /api/articles/upload-image
func UploadImage(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile(imageField)
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			response.Fail(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return
		}

		response.Fail(c, http.StatusBadRequest, "No image provided")
		return
	}

	status, f, mime, err := validators.ImageValidator(fh, d.Config.Upload.MaxSize)
	if err != nil {
		if status == http.StatusInternalServerError {
			zap.L().Error("Failed to read uploaded image", zap.Error(err), zap.String("requestID", requestID))
			response.Fail(c, status, "Internal server error")
			return
		}

		response.Fail(c, status, err.Error())
		return
	}
	defer f.Close()

	img, err := d.Articles.UploadImage(c.Request.Context(), userID, f, fh.Size, mime.String(), mime.Extension())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Image uploaded successfully", gin.H{
		"url":     img.URL,
		"assetId": img.AssetID,
	})
}
