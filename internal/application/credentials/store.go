package credentials

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
)

// Store is the only entry point that writes user records. Every write method
// hashes explicitly before handing the record to the repo, so no plaintext
// password reaches storage.
type Store struct {
	users  UserRepo
	hasher PasswordHasher
	obs    WriteObserver
}

type Option func(*Store)

// WithObserver attaches write/hash metrics.
func WithObserver(o WriteObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.obs = o
		}
	}
}

func NewStore(users UserRepo, hasher PasswordHasher, opts ...Option) *Store {
	s := &Store{
		users:  users,
		hasher: hasher,
		obs:    noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOne validates, hashes and inserts a single draft. The returned record
// carries the stored hash.
func (s *Store) CreateOne(ctx context.Context, d domain.Draft) (domain.User, error) {
	u, err := s.createOne(ctx, d)
	s.obs.ObserveWrite("create_one", err)
	return u, err
}

func (s *Store) createOne(ctx context.Context, d domain.Draft) (domain.User, error) {
	d = normalizeDraft(d)
	if err := validateDraft(d); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hash(d.Password)
	if err != nil {
		return domain.User{}, err
	}

	return s.users.Insert(ctx, draftToUser(d, hash))
}

// UpdateOne applies a partial update. The password is re-hashed only when the
// patch carries a value different from the stored hash; saving a record back
// with its own hash (or without a password) leaves the hash untouched.
func (s *Store) UpdateOne(ctx context.Context, id string, p domain.Patch) (domain.User, error) {
	u, err := s.updateOne(ctx, id, p)
	s.obs.ObserveWrite("update_one", err)
	return u, err
}

func (s *Store) updateOne(ctx context.Context, id string, p domain.Patch) (domain.User, error) {
	cur, err := s.users.FindByIDWithPassword(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	next, err := applyPatch(cur, p)
	if err != nil {
		return domain.User{}, err
	}

	if p.Password != nil && *p.Password != cur.PasswordHash {
		if *p.Password == "" {
			return domain.User{}, domain.ErrMissingField("password")
		}
		if err := validatePassword(*p.Password); err != nil {
			return domain.User{}, err
		}
		hash, err := s.hash(*p.Password)
		if err != nil {
			return domain.User{}, err
		}
		next.PasswordHash = hash
	}

	return s.users.Update(ctx, next)
}

// BulkCreate prepares every draft before the first write, so a validation or
// hashing failure aborts the batch with nothing persisted. Passwords carrying
// the bcrypt marker are stored as given, anything else is hashed. A marker
// value that does not parse as a bcrypt digest is rejected with
// invalid_password_hash rather than stored, so restores must carry well-formed
// hashes. The insert
// itself is ordered: a uniqueness violation stops at the conflicting draft and
// the records before it stay written.
func (s *Store) BulkCreate(ctx context.Context, drafts []domain.Draft) ([]domain.User, error) {
	us, err := s.bulkCreate(ctx, drafts)
	s.obs.ObserveWrite("bulk_create", err)
	return us, err
}

func (s *Store) bulkCreate(ctx context.Context, drafts []domain.Draft) ([]domain.User, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	prepared := make([]domain.User, 0, len(drafts))
	for _, d := range drafts {
		d = normalizeDraft(d)
		if err := validateDraft(d); err != nil {
			return nil, err
		}

		hash := d.Password
		if security.LooksHashed(d.Password) {
			if !security.IsHash(d.Password) {
				return nil, domain.ErrInvalidPasswordHash()
			}
		} else {
			h, err := s.hash(d.Password)
			if err != nil {
				return nil, err
			}
			hash = h
		}
		prepared = append(prepared, draftToUser(d, hash))
	}

	return s.users.InsertMany(ctx, prepared)
}

// DeleteAll removes every record. Maintenance and seeding only.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.users.DeleteAll(ctx)
	s.obs.ObserveWrite("delete_all", err)
	return n, err
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	err := s.users.DeleteByID(ctx, id)
	s.obs.ObserveWrite("delete_one", err)
	return err
}

// VerifyPassword compares candidate against the stored hash. A record loaded
// without its hash never verifies.
func (s *Store) VerifyPassword(u domain.User, candidate string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return s.hasher.Compare(u.PasswordHash, candidate) == nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Store) GetByIDWithPassword(ctx context.Context, id string) (domain.User, error) {
	return s.users.FindByIDWithPassword(ctx, id)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

func (s *Store) hash(password string) (string, error) {
	start := time.Now()
	h, err := s.hasher.Hash(password)
	s.obs.ObserveHash(time.Since(start).Seconds())
	if err != nil {
		if domain.Is(err, "hash_failed") {
			return "", err
		}
		return "", domain.ErrHashFailed(err)
	}
	return h, nil
}

func draftToUser(d domain.Draft, hash string) domain.User {
	return domain.User{
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: hash,
		Role:         d.Role,
	}
}

type noopObserver struct{}

func (noopObserver) ObserveWrite(string, error) {}
func (noopObserver) ObserveHash(float64)        {}
