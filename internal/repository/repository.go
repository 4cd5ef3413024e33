package repository

import (
	"context"
	"errors"

	"github.com/KrPrince19/CareNest/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrMedicationNotFound = errors.New("medication not found")
)

// Repository is the backend's persistence contract.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmailAndRole(ctx context.Context, email string, role model.Role) (model.User, error)
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error

	// Medication operations
	CreateMedication(ctx context.Context, med model.Medication) error
	ListMedications(ctx context.Context, userEmail string) ([]model.Medication, error)
	TakeMedication(ctx context.Context, id string) (model.Medication, error)

	// Database operations
	HealthCheck(ctx context.Context) error
}
