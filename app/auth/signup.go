package auth

import (
	"net/http"
	"time"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/service"
	"bitwise74/readstack/validators"

	"github.com/gin-gonic/gin"
)

type signUpBody struct {
	FirstName       string   `json:"firstName" binding:"required,max=50"`
	LastName        string   `json:"lastName" binding:"required,max=50"`
	Email           string   `json:"email" binding:"required,email,max=254"`
	Phone           string   `json:"phone" binding:"required,phone"`
	DOB             string   `json:"dob" binding:"required,dob"`
	Password        string   `json:"password" binding:"required,password"`
	ConfirmPassword string   `json:"confirmPassword" binding:"required"`
	Preferences     []string `json:"preferences" binding:"omitempty,max=20,dive,pref"`
}

// POST /api/auth/signUp
func SignUp(c *gin.Context, d *internal.Deps) {
	var data signUpBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	// Already checked by the binding
	dob, _ := time.Parse(validators.DateLayout, data.DOB)

	email, err := d.Auth.SignUp(c.Request.Context(), service.SignUpInput{
		FirstName:       data.FirstName,
		LastName:        data.LastName,
		Email:           data.Email,
		Phone:           data.Phone,
		DOB:             dob,
		Password:        data.Password,
		ConfirmPassword: data.ConfirmPassword,
		Preferences:     data.Preferences,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Success! A verification link was sent to your inbox.", gin.H{
		"email": email,
	})
}
