package credentials

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for user records. Implementations own ID assignment,
timestamps and the username/email uniqueness constraints; they never hash.
Reads exclude the password hash unless the method name says otherwise.
*/
type UserRepo interface {
	Insert(ctx context.Context, u domain.User) (domain.User, error)
	// InsertMany is ordered: it stops at the first failing record and returns
	// the records written before it.
	InsertMany(ctx context.Context, us []domain.User) ([]domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)

	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByIDWithPassword(ctx context.Context, id string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Count(ctx context.Context) (int64, error)

	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

// WriteObserver receives the outcome of every write and hash.
type WriteObserver interface {
	ObserveWrite(op string, err error)
	ObserveHash(seconds float64)
}
