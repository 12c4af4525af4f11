package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

type UserController struct {
	Staff *services.StaffDirectory
	Reset *services.DailyResetService
}

func NewUserController(staff *services.StaffDirectory, reset *services.DailyResetService) *UserController {
	return &UserController{Staff: staff, Reset: reset}
}

// Login checks name and PIN and returns a JWT. The first login of the day
// also archives yesterday's closed orders.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required"`
		PIN          string `json:"pin" binding:"required"`
		RestaurantID uint   `json:"restaurant_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	staff, err := uc.Staff.Authenticate(c.Request.Context(), input.RestaurantID, input.Name, input.PIN)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadCredentials):
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid name or pin"), nil)
		case errors.Is(err, services.ErrInactiveStaff):
			utils.RespondErrorCode(c, http.StatusForbidden, "forbidden", err, nil)
		default:
			respondServiceError(c, err, nil)
		}
		return
	}

	if uc.Reset != nil {
		uc.Reset.EnsureDailyReset(c.Request.Context(), staff.RestaurantID)
	}

	token, err := utils.GenerateToken(staff.ID, staff.RestaurantID, string(staff.Role))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful: staff %d (role=%s, restaurant=%d)", staff.ID, staff.Role, staff.RestaurantID)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"role":  staff.Role,
		"staff": staff,
	})
}

// Logout revokes the current token until it would have expired anyway.
func (uc *UserController) Logout(c *gin.Context) {
	token, expiry := middlewares.CurrentToken(c)
	if expiry.IsZero() {
		expiry = time.Now().Add(24 * time.Hour)
	}
	utils.BlacklistToken(token, expiry)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile returns the principal behind the token.
func (uc *UserController) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{
		"staff_id":      p.StaffID,
		"restaurant_id": p.RestaurantID,
		"role":          p.Role,
	})
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	staff, err := uc.Staff.List(c.Request.Context(), p.RestaurantID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of staff", staff)
}

func (uc *UserController) CreateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		Name string      `json:"name" binding:"required"`
		PIN  string      `json:"pin" binding:"required"`
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	staff, err := uc.Staff.Create(c.Request.Context(), p.RestaurantID, services.NewStaff{Name: req.Name, PIN: req.PIN, Role: req.Role})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Staff created", staff)
}

func (uc *UserController) ResetPIN(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	staffID, ok := paramID(c, "staff_id")
	if !ok {
		return
	}
	var req struct {
		PIN string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := uc.Staff.ResetPIN(c.Request.Context(), p.RestaurantID, staffID, req.PIN); err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "PIN updated", nil)
}

func (uc *UserController) SetActive(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	staffID, ok := paramID(c, "staff_id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := uc.Staff.SetActive(c.Request.Context(), p.RestaurantID, staffID, *req.Active); err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Staff updated", nil)
}
