// Package article contains the article endpoints
package article

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type createBody struct {
	Title           string         `json:"title" binding:"required,min=3,max=150"`
	Content         datatypes.JSON `json:"content" binding:"required,richtext"`
	Category        string         `json:"category" binding:"required,category"`
	FeaturedImage   *string        `json:"featuredImage" binding:"omitempty,url,max=2048"`
	FeaturedImageID *string        `json:"featuredImageId" binding:"omitempty,max=255"`
}

// POST /api/articles
func Create(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	a, err := d.Articles.Create(c.Request.Context(), userID, service.ArticleInput{
		Title:           data.Title,
		Content:         data.Content,
		Category:        data.Category,
		FeaturedImage:   data.FeaturedImage,
		FeaturedImageID: data.FeaturedImageID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Article created successfully", gin.H{
		"article": a,
	})
}

// GET /api/articles/categories
func Categories(c *gin.Context, d *internal.Deps) {
	response.OK(c, http.StatusOK, "Categories fetched", gin.H{
		"categories": d.Articles.Categories(),
	})
}
