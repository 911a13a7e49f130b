// Package user contains the profile endpoints of the signed in user
package user

import (
	"net/http"
	"time"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/validators"

	"github.com/gin-gonic/gin"
)

type profileBody struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Phone     *string `json:"phone" binding:"omitempty,phone"`
	DOB       *string `json:"dob" binding:"omitempty,dob"`
}

// GET /api/users/profile
func GetProfile(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	u, err := d.Profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile fetched", gin.H{
		"user": u,
	})
}

// PATCH /api/users/profile
func UpdateProfile(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data profileBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	p := model.ProfileUpdate{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Phone:     data.Phone,
	}

	if data.DOB != nil {
		dob, _ := time.Parse(validators.DateLayout, *data.DOB)
		p.DOB = &dob
	}

	u, err := d.Profiles.UpdateProfile(c.Request.Context(), userID, p)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile updated successfully", gin.H{
		"user": u,
	})
}
