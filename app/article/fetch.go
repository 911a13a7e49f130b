package article

import (
	"net/http"
	"strconv"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/service"

	"github.com/gin-gonic/gin"
)

// queryInt returns def for a missing parameter
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return v, true
}

// GET /api/articles/feed?page=&limit=&category=
func Feed(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	page, ok := queryInt(c, "page", 1)
	if !ok {
		response.Fail(c, http.StatusBadRequest, "page must be a number")
		return
	}

	limit, ok := queryInt(c, "limit", service.DefaultFeedLimit)
	if !ok {
		response.Fail(c, http.StatusBadRequest, "limit must be a number")
		return
	}

	p, err := d.Articles.Feed(c.Request.Context(), userID, service.FeedParams{
		// Zero means default in the workflow, an explicit zero is still invalid
		Page:     nonZero(page),
		Limit:    nonZero(limit),
		Category: c.Query("category"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Feed fetched", gin.H{
		"articles":   p.Articles,
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      p.Total,
		"totalPages": p.TotalPages,
		"hasMore":    p.HasMore,
	})
}

func nonZero(v int) int {
	if v == 0 {
		return -1
	}

	return v
}

// GET /api/articles/my-articles
func MyArticles(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	entries, err := d.Articles.MyArticles(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Articles fetched", gin.H{
		"articles": entries,
	})
}

// GET /api/articles/:id
func Get(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	a, err := d.Articles.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Article fetched", gin.H{
		"article": a,
	})
}
