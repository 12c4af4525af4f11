package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	s := newServer(t)

	w, resp := s.do(t, http.MethodPost, "/login", "", gin.H{"name": "Ana", "pin": "1234", "restaurant_id": restaurantID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string      `json:"token"`
		Role  models.Role `json:"role"`
	}
	decode(t, resp.Data, &data)
	assert.Equal(t, models.RoleWaiter, data.Role)
	assert.NotContains(t, w.Body.String(), `"pin"`)

	claims, err := utils.ValidateToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, s.fx.Waiter.ID, claims.StaffID)
	assert.Equal(t, restaurantID, claims.RestaurantID)

	var configs int64
	require.NoError(t, s.db.Model(&models.RestaurantConfig{}).Count(&configs).Error)
	assert.Equal(t, int64(1), configs, "first login of the day runs the reset")
}

func TestLoginFailures(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.db.Model(&models.Staff{}).Where("id = ?", s.fx.Cook.ID).Update("ativo", false).Error)

	w, resp := s.do(t, http.MethodPost, "/login", "", gin.H{"name": "Ana", "pin": "9999"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", resp.Code)

	w, resp = s.do(t, http.MethodPost, "/login", "", gin.H{"name": "Caio", "pin": "5678"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", resp.Code)

	w, resp = s.do(t, http.MethodPost, "/login", "", gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", resp.Code)

	// the limiter allows three attempts per IP
	w, resp = s.do(t, http.MethodPost, "/login", "", gin.H{"name": "Ana", "pin": "1234"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", resp.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newServer(t)
	token := s.token(t, s.fx.Waiter)

	w, _ := s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := s.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", resp.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)
	w, resp := s.do(t, http.MethodGet, "/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", resp.Code)

	w, _ = s.do(t, http.MethodGet, "/tables", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffAdministration(t *testing.T) {
	s := newServer(t)
	admin := s.token(t, s.admin)

	w, resp := s.do(t, http.MethodPost, "/staff", admin, gin.H{"name": "Bia", "pin": "4321", "role": "garcom"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Staff
	decode(t, resp.Data, &created)
	assert.True(t, created.Active)

	w, resp = s.do(t, http.MethodPost, "/staff", admin, gin.H{"name": "Leo", "pin": "4321", "role": "garcom"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", resp.Code)

	w, _ = s.do(t, http.MethodPatch, "/staff/"+itoa(created.ID)+"/pin", admin, gin.H{"pin": "8765"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp = s.do(t, http.MethodPatch, "/staff/999/pin", admin, gin.H{"pin": "8766"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp.Code)

	w, _ = s.do(t, http.MethodPatch, "/staff/"+itoa(created.ID)+"/active", admin, gin.H{"active": false})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(t, http.MethodGet, "/staff", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var staff []models.Staff
	decode(t, resp.Data, &staff)
	assert.Len(t, staff, 4)

	w, resp = s.do(t, http.MethodPost, "/staff", s.token(t, s.fx.Waiter), gin.H{"name": "X", "pin": "1111", "role": "garcom"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", resp.Code)
}
