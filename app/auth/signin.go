package auth

import (
	"net/http"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
)

type signInBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/signIn
func SignIn(c *gin.Context, d *internal.Deps) {
	var data signInBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	s, err := d.Auth.SignIn(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	setRefreshCookie(c, d, s.RefreshToken)
	response.OK(c, http.StatusOK, "Sign in successfully completed", gin.H{
		"userID":      s.UserID,
		"email":       s.Email,
		"accessToken": s.AccessToken,
	})
}

// POST /api/auth/logout
func Logout(c *gin.Context, d *internal.Deps) {
	token, _ := c.Cookie(RefreshCookie)

	if err := d.Auth.Logout(token); err != nil {
		response.Error(c, err)
		return
	}

	clearRefreshCookie(c, d)
	response.OK(c, http.StatusOK, "Logged out successfully", nil)
}
