package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/creditdesk/authd/internal/models"
)

// Principal is the kind-neutral view of a stored account. The engine never
// sees the gorm models directly, so one flow implementation serves both
// users and employees.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Directory is the credential store for one principal kind.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Create(ctx context.Context, email, passwordHash string, roles []string) (*Principal, error)
}

type UserDirectory struct {
	DB *gorm.DB
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	var u models.User
	if err := d.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return userPrincipal(&u), nil
}

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	var u models.User
	if err := d.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return userPrincipal(&u), nil
}

func (d *UserDirectory) Create(ctx context.Context, email, passwordHash string, roles []string) (*Principal, error) {
	u := models.User{Email: email, PasswordHash: passwordHash, Roles: roles}
	var existing models.User
	err := d.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := d.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return userPrincipal(&u), nil
}

func userPrincipal(u *models.User) *Principal {
	return &Principal{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        u.Roles,
		CreatedAt:    u.CreatedAt,
	}
}

type EmployeeDirectory struct {
	DB *gorm.DB
}

func (d *EmployeeDirectory) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	var e models.Employee
	if err := d.DB.WithContext(ctx).Where("email = ?", email).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return employeePrincipal(&e), nil
}

func (d *EmployeeDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	var e models.Employee
	if err := d.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return employeePrincipal(&e), nil
}

func (d *EmployeeDirectory) Create(ctx context.Context, email, passwordHash string, roles []string) (*Principal, error) {
	e := models.Employee{Email: email, PasswordHash: passwordHash, Roles: roles}
	var existing models.Employee
	err := d.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := d.DB.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, err
	}
	return employeePrincipal(&e), nil
}

func employeePrincipal(e *models.Employee) *Principal {
	return &Principal{
		ID:           e.ID,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Roles:        e.Roles,
		CreatedAt:    e.CreatedAt,
	}
}
