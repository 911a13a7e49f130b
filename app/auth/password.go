package auth

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/service"

	"github.com/gin-gonic/gin"
)

type resetBody struct {
	Email           string `json:"email" binding:"required,email"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// POST /api/auth/forgot-password
func ForgotPassword(c *gin.Context, d *internal.Deps) {
	email, ok := bindEmail(c)
	if !ok {
		return
	}

	if err := d.Auth.RequestPasswordReset(c.Request.Context(), email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "If an account exists for this email, a reset link was sent to it.", nil)
}

// POST /api/auth/reset-password
func ResetPassword(c *gin.Context, d *internal.Deps) {
	var data resetBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	err := d.Auth.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:           data.Email,
		Token:           data.Token,
		Password:        data.Password,
		ConfirmPassword: data.ConfirmPassword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password reset successfully, please login", nil)
}
