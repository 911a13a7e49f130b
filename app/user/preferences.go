package user

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
)

type preferencesBody struct {
	Preferences []string `json:"preferences" binding:"required,max=20,dive,pref"`
}

// PATCH /api/users/preferences
func UpdatePreferences(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data preferencesBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	u, err := d.Profiles.UpdatePreferences(c.Request.Context(), userID, data.Preferences)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Preferences updated successfully", gin.H{
		"user": u,
	})
}
