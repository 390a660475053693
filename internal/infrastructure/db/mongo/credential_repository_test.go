package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// testDatabase connects to MONGO_TEST_URI and returns a throwaway database.
// The tests are skipped when the variable is unset.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{URI: uri, Database: "taskboard_test_" + uuid.NewString()[:8]})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func newTestPrincipal(email string) *domain.Principal {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Principal{
		Name:          "Test",
		Email:         email,
		PasswordHash:  "hash",
		Role:          domain.RoleUser,
		AuthType:      domain.AuthTypeLocal,
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCredentialRepository_CreateAndFind(t *testing.T) {
	db := testDatabase(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	created, err := repo.Create(ctx, newTestPrincipal("a@x.com"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = repo.Create(ctx, newTestPrincipal("a@x.com"))
	assert.ErrorIs(t, err, domain.ErrUserExists)

	_, err = repo.FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCredentialRepository_UsersAndAdminsAreSeparate(t *testing.T) {
	db := testDatabase(t)
	users := NewUserRepository(db, 0)
	admins := NewAdminRepository(db, 0)
	ctx := context.Background()

	_, err := users.Create(ctx, newTestPrincipal("same@x.com"))
	require.NoError(t, err)

	_, err = admins.FindByEmail(ctx, "same@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCredentialRepository_SessionsCappedAndConcurrent(t *testing.T) {
	db := testDatabase(t)
	repo := NewUserRepository(db, 5)
	ctx := context.Background()

	p, err := repo.Create(ctx, newTestPrincipal("s@x.com"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.AddRefreshToken(ctx, p.ID, fmt.Sprintf("tok-%d", i), time.Now()))
		}(i)
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.RefreshTokens, 5)
	assert.NotNil(t, got.LastLogin)

	// Pushing past the cap evicts the oldest entry.
	require.NoError(t, repo.AddRefreshToken(ctx, p.ID, "tok-new", time.Now()))
	got, _ = repo.FindByID(ctx, p.ID)
	assert.Len(t, got.RefreshTokens, 5)
	assert.True(t, got.HasRefreshToken("tok-new"))

	// Concurrent logout of one token and login of another keeps both effects.
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := repo.RemoveRefreshToken(ctx, p.ID, "tok-new")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, repo.AddRefreshToken(ctx, p.ID, "tok-latest", time.Now()))
	}()
	wg.Wait()

	got, _ = repo.FindByID(ctx, p.ID)
	assert.False(t, got.HasRefreshToken("tok-new"))
	assert.True(t, got.HasRefreshToken("tok-latest"))
}

func TestCredentialRepository_RemoveRefreshToken_Missing(t *testing.T) {
	db := testDatabase(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	got, err := repo.RemoveRefreshToken(ctx, "000000000000000000000000", "tok")
	require.NoError(t, err)
	assert.Nil(t, got)

	p, _ := repo.Create(ctx, newTestPrincipal("r@x.com"))
	got, err = repo.RemoveRefreshToken(ctx, p.ID, "never-issued")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.RefreshTokens)
}

func TestCredentialRepository_PasswordResetIsSingleUse(t *testing.T) {
	db := testDatabase(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	p, err := repo.Create(ctx, newTestPrincipal("reset@x.com"))
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(ctx, p.ID, "hash-1", expiry))

	got, _ := repo.FindByID(ctx, p.ID)
	assert.Equal(t, "hash-1", got.ResetTokenHash)
	require.NotNil(t, got.ResetTokenExpiry)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.CompletePasswordReset(ctx, p.ID, "hash-1", fmt.Sprintf("new-hash-%d", i))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, _ = repo.FindByID(ctx, p.ID)
	assert.Empty(t, got.ResetTokenHash)
	assert.Nil(t, got.ResetTokenExpiry)
	assert.Contains(t, []string{"new-hash-0", "new-hash-1"}, got.PasswordHash)
}

func TestCredentialRepository_SetBlockedClearsSessions(t *testing.T) {
	db := testDatabase(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	p, _ := repo.Create(ctx, newTestPrincipal("b@x.com"))
	require.NoError(t, repo.AddRefreshToken(ctx, p.ID, "tok", time.Now()))
	require.NoError(t, repo.SetBlocked(ctx, p.ID, true))

	got, _ := repo.FindByID(ctx, p.ID)
	assert.True(t, got.IsBlocked)
	assert.Empty(t, got.RefreshTokens)

	assert.ErrorIs(t, repo.SetBlocked(ctx, "000000000000000000000000", true), domain.ErrUserNotFound)
}
