package article

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type updateBody struct {
	Title           *string        `json:"title" binding:"omitempty,min=3,max=150"`
	Content         datatypes.JSON `json:"content" binding:"omitempty,richtext"`
	Category        *string        `json:"category" binding:"omitempty,category"`
	FeaturedImage   *string        `json:"featuredImage" binding:"omitempty,max=2048"`
	FeaturedImageID *string        `json:"featuredImageId" binding:"omitempty,max=255"`
}

// PATCH /api/articles/:id
func Update(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	patch := model.ArticlePatch{
		Title:           data.Title,
		Content:         data.Content,
		Category:        data.Category,
		FeaturedImage:   data.FeaturedImage,
		FeaturedImageID: data.FeaturedImageID,
	}

	if patch.Empty() {
		response.Fail(c, http.StatusBadRequest, "No fields to update")
		return
	}

	a, err := d.Articles.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Article updated successfully", gin.H{
		"article": a,
	})
}

// DELETE /api/articles/:id
func Delete(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	if err := d.Articles.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Article deleted successfully", nil)
}
