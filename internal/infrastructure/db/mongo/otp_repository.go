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
	collectionOTPs = "otps"

	DefaultOTPRetention = 24 * time.Hour
)

// OTPRepository implements ports.OTPRepository. Records are reaped by a TTL
// index on created_at, independent of the much shorter code lifetime.
type OTPRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

func NewOTPRepository(db *mongo.Database, retention time.Duration) *OTPRepository {
	if retention <= 0 {
		retention = DefaultOTPRetention
	}
	return &OTPRepository{col: db.Collection(collectionOTPs), retention: retention}
}

type otpDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Code         string             `bson:"code"`
	ExpiresAt    time.Time          `bson:"expires_at"`
	Attempts     int                `bson:"attempts"`
	ResendCount  int                `bson:"resend_count"`
	LastResendAt *time.Time         `bson:"last_resend_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d otpDoc) toDomain() *domain.OTP {
	return &domain.OTP{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Code:         d.Code,
		ExpiresAt:    d.ExpiresAt.UTC(),
		Attempts:     d.Attempts,
		ResendCount:  d.ResendCount,
		LastResendAt: utcPtr(d.LastResendAt),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *OTPRepository) Create(ctx context.Context, otp *domain.OTP) (*domain.OTP, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := otpDoc{
		Email:        otp.Email,
		Code:         otp.Code,
		ExpiresAt:    otp.ExpiresAt.UTC(),
		Attempts:     otp.Attempts,
		ResendCount:  otp.ResendCount,
		LastResendAt: utcPtr(otp.LastResendAt),
		CreatedAt:    otp.CreatedAt.UTC(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert otp: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert otp: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

// Latest sorts by created_at then _id, both descending. ObjectIDs grow
// monotonically per process, which breaks ties within one millisecond.
func (r *OTPRepository) Latest(ctx context.Context, email string) (*domain.OTP, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	var doc otpDoc
	if err := r.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrOTPNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return fmt.Errorf("increment otp attempts: %w", err)
	}
	return nil
}

// Consume deletes the record by _id. DeleteOne is atomic per document, so
// only one of several concurrent callers observes DeletedCount == 1.
func (r *OTPRepository) Consume(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

// EnsureIndexes creates the retention TTL index and the lookup index.
func (r *OTPRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention.Seconds())),
		},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
