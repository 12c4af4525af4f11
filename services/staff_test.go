package services_test

import (
	"context"
	"testing"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPIN(t *testing.T) {
	assert.True(t, services.ValidPIN("0042"))
	for _, pin := range []string{"", "123", "12345", "12a4", " 123"} {
		assert.False(t, services.ValidPIN(pin), pin)
	}
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	dir := services.NewStaffDirectory(e.store)
	ctx := context.Background()

	staff, err := dir.Authenticate(ctx, 0, " Ana ", "1234")
	require.NoError(t, err)
	assert.Equal(t, e.fx.Waiter.ID, staff.ID)

	_, err = dir.Authenticate(ctx, 0, "Ana", "9999")
	assert.ErrorIs(t, err, services.ErrBadCredentials)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = dir.Authenticate(ctx, restaurantID+1, "Ana", "1234")
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	_, err = dir.Authenticate(ctx, 0, "Ana", "12")
	assert.ErrorIs(t, err, services.ErrBadCredentials)
}

func TestAuthenticateAmbiguousName(t *testing.T) {
	e := newEnv(t)
	twin := models.Staff{RestaurantID: restaurantID + 1, Name: "Ana", PIN: "1234", Role: models.RoleWaiter, Active: true}
	require.NoError(t, e.db.Create(&twin).Error)
	dir := services.NewStaffDirectory(e.store)

	_, err := dir.Authenticate(context.Background(), 0, "Ana", "1234")
	assert.ErrorIs(t, err, services.ErrValidation)

	staff, err := dir.Authenticate(context.Background(), restaurantID+1, "Ana", "1234")
	require.NoError(t, err)
	assert.Equal(t, twin.ID, staff.ID)
}

func TestAuthenticateInactive(t *testing.T) {
	e := newEnv(t)
	dir := services.NewStaffDirectory(e.store)
	require.NoError(t, dir.SetActive(context.Background(), restaurantID, e.fx.Cook.ID, false))

	_, err := dir.Authenticate(context.Background(), restaurantID, "Caio", "5678")
	assert.ErrorIs(t, err, services.ErrInactiveStaff)

	require.NoError(t, dir.SetActive(context.Background(), restaurantID, e.fx.Cook.ID, true))
	_, err = dir.Authenticate(context.Background(), restaurantID, "Caio", "5678")
	assert.NoError(t, err)
}

func TestCreateStaff(t *testing.T) {
	e := newEnv(t)
	dir := services.NewStaffDirectory(e.store)
	ctx := context.Background()

	staff, err := dir.Create(ctx, restaurantID, services.NewStaff{Name: "Bia", PIN: "4321", Role: models.RoleWaiter})
	require.NoError(t, err)
	assert.True(t, staff.Active)
	assert.NotZero(t, staff.ID)

	cases := []struct {
		name string
		in   services.NewStaff
		want error
	}{
		{"pin in use", services.NewStaff{Name: "Rui", PIN: "1234", Role: models.RoleWaiter}, services.ErrPINInUse},
		{"short pin", services.NewStaff{Name: "Rui", PIN: "123", Role: models.RoleWaiter}, services.ErrInvalidPIN},
		{"no name", services.NewStaff{Name: " ", PIN: "1111", Role: models.RoleWaiter}, services.ErrValidation},
		{"bad role", services.NewStaff{Name: "Rui", PIN: "1111", Role: "gerente"}, services.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dir.Create(ctx, restaurantID, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	// the same PIN is fine in another restaurant
	_, err = dir.Create(ctx, restaurantID+1, services.NewStaff{Name: "Rui", PIN: "1234", Role: models.RoleAdmin})
	assert.NoError(t, err)
}

func TestResetPIN(t *testing.T) {
	e := newEnv(t)
	dir := services.NewStaffDirectory(e.store)
	ctx := context.Background()

	assert.ErrorIs(t, dir.ResetPIN(ctx, restaurantID, e.fx.Waiter.ID, "5678"), services.ErrPINInUse)
	assert.NoError(t, dir.ResetPIN(ctx, restaurantID, e.fx.Waiter.ID, "1234"), "keeping its own pin")
	assert.ErrorIs(t, dir.ResetPIN(ctx, restaurantID, e.fx.Waiter.ID, "abcd"), services.ErrInvalidPIN)
	assert.ErrorIs(t, dir.ResetPIN(ctx, restaurantID+1, e.fx.Waiter.ID, "2222"), services.ErrNotFound)

	require.NoError(t, dir.ResetPIN(ctx, restaurantID, e.fx.Waiter.ID, "2222"))
	_, err := dir.Authenticate(ctx, restaurantID, "Ana", "2222")
	assert.NoError(t, err)
}

func TestListStaff(t *testing.T) {
	e := newEnv(t)
	staff, err := services.NewStaffDirectory(e.store).List(context.Background(), restaurantID)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Ana", staff[0].Name)
	assert.Equal(t, "Caio", staff[1].Name)

	assert.ErrorIs(t, services.NewStaffDirectory(e.store).SetActive(context.Background(), restaurantID, 999, false), services.ErrNotFound)
}
