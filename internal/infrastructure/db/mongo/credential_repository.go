package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

const (
	collectionUsers  = "users"
	collectionAdmins = "admins"

	DefaultMaxSessions = 10
)

// CredentialRepository implements ports.CredentialStore for one principal
// class. Users and admins live in separate collections but share the same
// document shape and session policy.
type CredentialRepository struct {
	col         *mongo.Collection
	maxSessions int
}

func NewUserRepository(db *mongo.Database, maxSessions int) *CredentialRepository {
	return newCredentialRepository(db.Collection(collectionUsers), maxSessions)
}

func NewAdminRepository(db *mongo.Database, maxSessions int) *CredentialRepository {
	return newCredentialRepository(db.Collection(collectionAdmins), maxSessions)
}

func newCredentialRepository(col *mongo.Collection, maxSessions int) *CredentialRepository {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &CredentialRepository{col: col, maxSessions: maxSessions}
}

type principalDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash,omitempty"`
	ProfilePic       string             `bson:"profile_pic,omitempty"`
	Role             string             `bson:"role"`
	AuthType         string             `bson:"auth_type,omitempty"`
	IsBlocked        bool               `bson:"is_blocked"`
	RefreshTokens    []string           `bson:"refresh_tokens"`
	ResetTokenHash   string             `bson:"reset_token_hash,omitempty"`
	ResetTokenExpiry *time.Time         `bson:"reset_token_expiry,omitempty"`
	LastLogin        *time.Time         `bson:"last_login,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func toPrincipalDoc(p *domain.Principal) principalDoc {
	tokens := p.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}
	return principalDoc{
		Name:             p.Name,
		Email:            p.Email,
		PasswordHash:     p.PasswordHash,
		ProfilePic:       p.ProfilePic,
		Role:             p.Role,
		AuthType:         p.AuthType,
		IsBlocked:        p.IsBlocked,
		RefreshTokens:    tokens,
		ResetTokenHash:   p.ResetTokenHash,
		ResetTokenExpiry: p.ResetTokenExpiry,
		LastLogin:        p.LastLogin,
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
}

func (d principalDoc) toDomain() *domain.Principal {
	return &domain.Principal{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		ProfilePic:       d.ProfilePic,
		Role:             d.Role,
		AuthType:         d.AuthType,
		IsBlocked:        d.IsBlocked,
		RefreshTokens:    d.RefreshTokens,
		ResetTokenHash:   d.ResetTokenHash,
		ResetTokenExpiry: utcPtr(d.ResetTokenExpiry),
		LastLogin:        utcPtr(d.LastLogin),
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r *CredentialRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toPrincipalDoc(p)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert principal: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert principal: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *CredentialRepository) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CredentialRepository) findOne(ctx context.Context, filter bson.M) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc principalDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return doc.toDomain(), nil
}

// SetBlocked flips the blocked flag. Blocking also drops every session.
func (r *CredentialRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	set := bson.M{"is_blocked": blocked, "updated_at": time.Now().UTC()}
	if blocked {
		set["refresh_tokens"] = []string{}
	}
	return r.updateByID(ctx, oid, bson.M{"$set": set})
}

// AddRefreshToken pushes token onto the session set, keeping only the newest
// maxSessions entries.
func (r *CredentialRepository) AddRefreshToken(ctx context.Context, id, token string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	update := bson.M{
		"$push": bson.M{"refresh_tokens": bson.M{
			"$each":  []string{token},
			"$slice": -r.maxSessions,
		}},
		"$set": bson.M{"last_login": at.UTC(), "updated_at": at.UTC()},
	}
	return r.updateByID(ctx, oid, update)
}

func (r *CredentialRepository) RemoveRefreshToken(ctx context.Context, id, token string) (*domain.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc principalDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"refresh_tokens": token}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("remove refresh token: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CredentialRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	return r.updateByID(ctx, oid, bson.M{"$set": bson.M{
		"reset_token_hash":   tokenHash,
		"reset_token_expiry": expiry.UTC(),
		"updated_at":         time.Now().UTC(),
	}})
}

// CompletePasswordReset only matches while the stored hash is unchanged, so
// two racing resets with the same token cannot both succeed.
func (r *CredentialRepository) CompletePasswordReset(ctx context.Context, id, tokenHash, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || tokenHash == "" {
		return domain.ErrInvalidResetToken
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "reset_token_hash": tokenHash},
		bson.M{
			"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("complete password reset: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidResetToken
	}
	return nil
}

func (r *CredentialRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update principal: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
