package user

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
)

type passwordBody struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// PATCH /api/users/password
func ChangePassword(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data passwordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	if err := d.Profiles.ChangePassword(c.Request.Context(), userID, data.CurrentPassword, data.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password changed successfully", nil)
}
