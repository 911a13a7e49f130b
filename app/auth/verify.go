package auth

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/validators"

	"github.com/gin-gonic/gin"
)

type verifyQuery struct {
	Email string `form:"email" binding:"required,email"`
	Token string `form:"token" binding:"required"`
}

type emailBody struct {
	Email string `json:"email"`
}

// bindEmail reads a body only carrying an email address
func bindEmail(c *gin.Context) (string, bool) {
	var data emailBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return "", false
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		msg := "email must be a valid email address"
		if err == validators.ErrEmailEmpty {
			msg = "email is required"
		}

		response.Fail(c, http.StatusBadRequest, msg)
		return "", false
	}

	return data.Email, true
}

// PATCH /api/auth/verify-email?email=&token=
func VerifyEmail(c *gin.Context, d *internal.Deps) {
	var q verifyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, http.StatusBadRequest, "Email and token are required for verification.")
		return
	}

	s, err := d.Auth.VerifyEmail(c.Request.Context(), q.Email, q.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	setRefreshCookie(c, d, s.RefreshToken)
	response.OK(c, http.StatusOK, "Email verified successfully", gin.H{
		"userID":      s.UserID,
		"email":       s.Email,
		"accessToken": s.AccessToken,
	})
}

// POST /api/auth/resend-verification
func ResendVerification(c *gin.Context, d *internal.Deps) {
	email, ok := bindEmail(c)
	if !ok {
		return
	}

	if err := d.Auth.ResendVerification(c.Request.Context(), email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "If the account is pending verification, a new link was sent to its inbox.", nil)
}
