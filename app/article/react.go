package article

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
)

// POST /api/articles/:id/like
func Like(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	a, err := d.Articles.ToggleLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Like updated", gin.H{
		"article": a,
	})
}

// POST /api/articles/:id/dislike
func Dislike(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	a, err := d.Articles.ToggleDislike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Dislike updated", gin.H{
		"article": a,
	})
}

// PATCH /api/articles/:id/block
func Block(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	_, blocked, err := d.Articles.ToggleBlock(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	msg := "Article unblocked"
	if blocked {
		msg = "Article blocked"
	}

	response.OK(c, http.StatusOK, msg, gin.H{
		"blocked": blocked,
	})
}
