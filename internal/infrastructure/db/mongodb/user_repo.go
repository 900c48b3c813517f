package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

const (
	CollectionUsers = "users"

	indexUsername = "username_1"
	indexEmail    = "email_1"
)

type UserRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{
		coll: db.Collection(CollectionUsers),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique indexes backing the username/email
// constraints. Idempotent.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
	})
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// ---------- helpers ----------

// withoutPassword is the default read projection.
var withoutPassword = options.FindOne().SetProjection(bson.D{{Key: "password", Value: 0}})

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, domain.ErrUserNotFound()
	}
	return oid, nil
}

// mapWriteErr turns a duplicate-key failure into the matching conflict error.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if duplicateIndex(err) == indexEmail {
			return domain.ErrEmailAlreadyExists()
		}
		return domain.ErrUsernameAlreadyExists()
	}
	return domain.ErrDBUnavailable(err)
}

// duplicateIndex extracts the index name from an E11000 message
// ("... index: email_1 dup key: { ... }").
func duplicateIndex(err error) string {
	msg := err.Error()
	i := strings.Index(msg, "index: ")
	if i < 0 {
		return ""
	}
	rest := msg[i+len("index: "):]
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (domain.User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(d), nil
}

// ---------- credentials.UserRepo ----------

func (r *UserRepo) Insert(ctx context.Context, u domain.User) (domain.User, error) {
	now := r.now()
	d := toDoc(u)
	d.ID = primitive.NewObjectID()
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return domain.User{}, mapWriteErr(err)
	}
	return toDomainUser(d), nil
}

func (r *UserRepo) InsertMany(ctx context.Context, us []domain.User) ([]domain.User, error) {
	if len(us) == 0 {
		return nil, nil
	}

	now := r.now()
	docs := make([]interface{}, len(us))
	out := make([]domain.User, len(us))
	for i, u := range us {
		d := toDoc(u)
		d.ID = primitive.NewObjectID()
		d.CreatedAt = now
		d.UpdatedAt = now
		docs[i] = d
		out[i] = toDomainUser(d)
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
			return out[:bwe.WriteErrors[0].Index], mapWriteErr(err)
		}
		return nil, mapWriteErr(err)
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u domain.User) (domain.User, error) {
	oid, err := parseID(u.ID)
	if err != nil {
		return domain.User{}, err
	}

	u.UpdatedAt = r.now()
	set := bson.D{
		{Key: "firstName", Value: u.FirstName},
		{Key: "lastName", Value: u.LastName},
		{Key: "username", Value: u.Username},
		{Key: "email", Value: u.Email},
		{Key: "password", Value: u.PasswordHash},
		{Key: "role", Value: u.Role},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return domain.User{}, mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, withoutPassword)
}

func (r *UserRepo) FindByIDWithPassword(ctx context.Context, id string) (domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}}, withoutPassword)
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}

func (r *UserRepo) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return res.DeletedCount, nil
}
