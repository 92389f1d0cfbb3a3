package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-pulse/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// UsersRepo stores users and their watchlists in the users collection.
// It satisfies both auth.UsersRepo and watchlist.Repository.
type UsersRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewUsersRepo creates the repository and ensures the unique email index.
func NewUsersRepo(ctx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection(usersCollection)

	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return nil, fmt.Errorf("create users email index: %w", err)
	}

	return &UsersRepo{collection: collection, now: time.Now}, nil
}

// Create inserts user; a taken email yields auth.ErrDuplicate.
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if user.Cryptos == nil {
		user.Cryptos = auth.DefaultWatchlist()
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByEmail finds a user by email address
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID finds a user by id
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var user auth.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetOTP stores the reset code together with its expiry.
func (r *UsersRepo) SetOTP(ctx context.Context, id bson.ObjectID, code string, expiresAt time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"otp":            code,
			"otp_expires_at": expiresAt,
			"updated_at":     r.now().UTC(),
		},
	})
}

// ClearOTP removes both reset fields.
func (r *UsersRepo) ClearOTP(ctx context.Context, id bson.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"otp": "", "otp_expires_at": ""},
		"$set":   bson.M{"updated_at": r.now().UTC()},
	})
}

// UpdatePassword stores a new hash and consumes any pending reset code.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": r.now().UTC()},
		"$unset": bson.M{"otp": "", "otp_expires_at": ""},
	})
}

func (r *UsersRepo) updateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// AddCrypto appends coinID to the user's watchlist unless already present.
// It reports whether the list changed.
func (r *UsersRepo) AddCrypto(ctx context.Context, id bson.ObjectID, coinID string) (bool, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "cryptos": bson.M{"$ne": coinID}},
		bson.M{
			"$addToSet": bson.M{"cryptos": coinID},
			"$set":      bson.M{"updated_at": r.now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Either the coin is already listed or the user is gone.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, auth.ErrUserNotFound
	}
	return false, nil
}

// RemoveCrypto pulls coinID from the watchlist and returns what remains.
func (r *UsersRepo) RemoveCrypto(ctx context.Context, id bson.ObjectID, coinID string) ([]string, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"cryptos": 1})

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"cryptos": coinID},
			"$set":  bson.M{"updated_at": r.now().UTC()},
		},
		opts,
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	if user.Cryptos == nil {
		return []string{}, nil
	}
	return user.Cryptos, nil
}
