package repository

import (
	"context"
	"sync"

	"github.com/KrPrince19/CareNest/internal/model"
)

// MemoryRepository is an in-memory Repository used by tests and the local
// demo mode. Safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by email+role
	meds  []model.Medication
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]model.User)}
}

func userKey(email string, role model.Role) string { return email + "/" + string(role) }

func (r *MemoryRepository) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userKey(user.Email, user.Role)
	if _, exists := r.users[key]; exists {
		return ErrUserExists
	}
	r.users[key] = user
	return nil
}

func (r *MemoryRepository) GetUserByEmailAndRole(_ context.Context, email string, role model.Role) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userKey(email, role)]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryRepository) UpdateUserPassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for key, user := range r.users {
		if user.Email == email {
			user.PasswordHash = passwordHash
			r.users[key] = user
			found = true
		}
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

func (r *MemoryRepository) CreateMedication(_ context.Context, med model.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meds = append(r.meds, med)
	return nil
}

func (r *MemoryRepository) ListMedications(_ context.Context, userEmail string) ([]model.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Medication
	for _, med := range r.meds {
		if med.UserEmail == userEmail {
			out = append(out, med)
		}
	}
	return out, nil
}

func (r *MemoryRepository) TakeMedication(_ context.Context, id string) (model.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.meds {
		if r.meds[i].ID != id {
			continue
		}
		if r.meds[i].Status != model.DoseTaken {
			r.meds[i].Status = model.DoseTaken
			if r.meds[i].Stock > 0 {
				r.meds[i].Stock--
			}
		}
		return r.meds[i], nil
	}
	return model.Medication{}, ErrMedicationNotFound
}

func (r *MemoryRepository) HealthCheck(_ context.Context) error { return nil }
