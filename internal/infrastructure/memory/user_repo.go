package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// UserRepo is an in-memory credentials.UserRepo. Uniqueness checks and
// inserts happen under one lock, so concurrent writers of the same username
// or email see exactly one winner.
type UserRepo struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string // username -> userID
	byEmail    map[string]string // email -> userID
	now        func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source (tests).
func (r *UserRepo) WithClock(now func() time.Time) *UserRepo {
	r.now = now
	return r
}

func (r *UserRepo) Insert(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(u)
}

func (r *UserRepo) InsertMany(ctx context.Context, us []domain.User) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.User, 0, len(us))
	for _, u := range us {
		created, err := r.insertLocked(u)
		if err != nil {
			return out, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *UserRepo) insertLocked(u domain.User) (domain.User, error) {
	if _, exists := r.byUsername[u.Username]; exists {
		return domain.User{}, domain.ErrUsernameAlreadyExists()
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}

	now := r.now()
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	if id, exists := r.byUsername[u.Username]; exists && id != u.ID {
		return domain.User{}, domain.ErrUsernameAlreadyExists()
	}
	if id, exists := r.byEmail[u.Email]; exists && id != u.ID {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}

	delete(r.byUsername, cur.Username)
	delete(r.byEmail, cur.Email)

	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = r.now()
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	u, err := r.FindByIDWithPassword(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (r *UserRepo) FindByIDWithPassword(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u := r.byID[id]
	u.PasswordHash = ""
	return u, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byID)), nil
}

func (r *UserRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	delete(r.byID, id)
	delete(r.byUsername, u.Username)
	delete(r.byEmail, u.Email)
	return nil
}

func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.byID))
	r.byID = make(map[string]domain.User)
	r.byUsername = make(map[string]string)
	r.byEmail = make(map[string]string)
	return n, nil
}

// IDs returns every stored id (tests and diagnostics).
func (r *UserRepo) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	return out
}
