package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/sirupsen/logrus"
)

var (
	pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

	ErrBadCredentials = fmt.Errorf("%w: invalid name or pin", ErrNotFound)
	ErrInactiveStaff  = fmt.Errorf("%w: account is inactive", ErrValidation)
)

// ValidPIN reports whether pin is exactly four digits.
func ValidPIN(pin string) bool { return pinPattern.MatchString(pin) }

// StaffDirectory manages accounts. PINs are stored and compared as plain text.
type StaffDirectory struct {
	Store database.DataStore
}

func NewStaffDirectory(store database.DataStore) *StaffDirectory {
	return &StaffDirectory{Store: store}
}

// Authenticate finds the active account matching name and pin. restaurantID
// narrows the lookup when the same name exists in several restaurants; zero
// searches them all.
func (d *StaffDirectory) Authenticate(ctx context.Context, restaurantID uint, name, pin string) (*models.Staff, error) {
	const op = "authenticate"
	name = strings.TrimSpace(name)
	if name == "" || !ValidPIN(pin) {
		return nil, opErr(op, ErrBadCredentials, nil)
	}

	where := []database.Cond{database.Eq("nome", name), database.Eq("pin", pin)}
	if restaurantID != 0 {
		where = append(where, database.Eq("restaurante_id", restaurantID))
	}
	var staff []models.Staff
	if err := d.Store.Select(ctx, &staff, database.Query{Where: where, Limit: 2}); err != nil {
		return nil, persistenceErr(op, err)
	}
	switch {
	case len(staff) == 0:
		return nil, opErr(op, ErrBadCredentials, nil)
	case len(staff) > 1:
		return nil, validationErr(op, "name exists in several restaurants, restaurant_id required")
	case !staff[0].Active:
		return nil, opErr(op, ErrInactiveStaff, nil)
	}
	return &staff[0], nil
}

// pinTaken checks uniqueness within the restaurant. The check and the write
// that follows are not atomic.
func (d *StaffDirectory) pinTaken(ctx context.Context, restaurantID uint, pin string, except uint) (bool, error) {
	var staff []models.Staff
	err := d.Store.Select(ctx, &staff, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID), database.Eq("pin", pin)},
	})
	if err != nil {
		return false, err
	}
	for _, s := range staff {
		if s.ID != except {
			return true, nil
		}
	}
	return false, nil
}

type NewStaff struct {
	Name string
	PIN  string
	Role models.Role
}

func (d *StaffDirectory) Create(ctx context.Context, restaurantID uint, in NewStaff) (*models.Staff, error) {
	const op = "create staff"
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, validationErr(op, "name is required")
	case !in.Role.Valid():
		return nil, validationErr(op, "unknown role %q", in.Role)
	case !ValidPIN(in.PIN):
		return nil, opErr(op, ErrInvalidPIN, nil)
	}

	taken, err := d.pinTaken(ctx, restaurantID, in.PIN, 0)
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	if taken {
		return nil, opErr(op, ErrPINInUse, nil)
	}

	staff := &models.Staff{RestaurantID: restaurantID, Name: name, PIN: in.PIN, Role: in.Role, Active: true}
	if err := d.Store.Insert(ctx, staff); err != nil {
		return nil, persistenceErr(op, err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{"staff_id": staff.ID, "restaurant_id": restaurantID, "role": staff.Role}).
		Info("staff account created")
	return staff, nil
}

func (d *StaffDirectory) ResetPIN(ctx context.Context, restaurantID, staffID uint, pin string) error {
	const op = "reset pin"
	if !ValidPIN(pin) {
		return opErr(op, ErrInvalidPIN, nil)
	}
	taken, err := d.pinTaken(ctx, restaurantID, pin, staffID)
	if err != nil {
		return persistenceErr(op, err)
	}
	if taken {
		return opErr(op, ErrPINInUse, nil)
	}

	n, err := d.Store.Update(ctx, &models.Staff{},
		[]database.Cond{database.Eq("id", staffID), database.Eq("restaurante_id", restaurantID)},
		map[string]interface{}{"pin": pin})
	if err != nil {
		return persistenceErr(op, err)
	}
	if n == 0 {
		return opErr(op, ErrNotFound, fmt.Errorf("staff %d", staffID))
	}
	return nil
}

// SetActive enables or disables an account; disabled accounts cannot log in.
func (d *StaffDirectory) SetActive(ctx context.Context, restaurantID, staffID uint, active bool) error {
	const op = "set staff active"
	var staff []models.Staff
	err := d.Store.Select(ctx, &staff, database.Query{
		Where: []database.Cond{database.Eq("id", staffID), database.Eq("restaurante_id", restaurantID)},
		Limit: 1,
	})
	if err != nil {
		return persistenceErr(op, err)
	}
	if len(staff) == 0 {
		return opErr(op, ErrNotFound, fmt.Errorf("staff %d", staffID))
	}
	if staff[0].Active == active {
		return nil
	}
	if _, err := d.Store.Update(ctx, &models.Staff{},
		[]database.Cond{database.Eq("id", staffID)},
		map[string]interface{}{"ativo": active}); err != nil {
		return persistenceErr(op, err)
	}
	return nil
}

func (d *StaffDirectory) List(ctx context.Context, restaurantID uint) ([]models.Staff, error) {
	staff := []models.Staff{}
	err := d.Store.Select(ctx, &staff, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID)},
		Order: "nome ASC",
	})
	if err != nil {
		return nil, persistenceErr("list staff", err)
	}
	return staff, nil
}
