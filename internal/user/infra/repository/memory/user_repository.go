// Package memory keeps user contacts in process, for the memory driver and tests.
package memory

import (
	"context"
	"sync"

	"github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
)

var _ domain.UserRepository = (*UserRepository)(nil)

// UserRepository is a concurrency safe in-memory user directory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepository(users ...domain.User) *UserRepository {
	r := &UserRepository{users: make(map[uuid.UUID]domain.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Add registers or replaces a user.
func (r *UserRepository) Add(u domain.User) {
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
}

// CreateUser registers u, replacing any user with the same id.
func (r *UserRepository) CreateUser(_ context.Context, u *domain.User) error {
	r.Add(*u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// GetByIDs returns the users found; unknown ids are absent from the map.
func (r *UserRepository) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}
