package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/creditdesk/authd/internal/models"
	"github.com/creditdesk/authd/internal/tokens"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Employee{}, &models.RefreshToken{}))

	return db
}

func newUserService(db *gorm.DB) *Service {
	codec := &tokens.Codec{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	return NewService(models.KindUser, []string{"user"}, &UserDirectory{DB: db}, codec, &RefreshTokenStore{DB: db})
}

func newEmployeeService(db *gorm.DB) *Service {
	codec := &tokens.Codec{
		AccessSecret:  []byte("test-emp-access-secret"),
		RefreshSecret: []byte("test-emp-refresh-secret"),
		Audience:      "employee",
	}
	return NewService(models.KindEmployee, []string{"employee"}, &EmployeeDirectory{DB: db}, codec, &RefreshTokenStore{DB: db})
}

func TestService_RegisterThenLogin_SameSubject(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	regPair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, regPair.AccessToken)
	require.NotEmpty(t, regPair.RefreshToken)

	loginPair, err := svc.Login(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	regClaims, err := svc.Tokens.ParseAccess(regPair.AccessToken)
	require.NoError(t, err)
	loginClaims, err := svc.Tokens.ParseAccess(loginPair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, regClaims.Subject, loginClaims.Subject)
	assert.Equal(t, "a@b.com", loginClaims.Email)
	assert.Equal(t, []string{"user"}, loginClaims.Roles)
}

func TestService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Register(ctx, "A@b.com", "Secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "a@b.com", "Secret123")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_Register_Validation(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "Secret123"},
		{name: "not an email", email: "not-an-email", password: "Secret123"},
		{name: "display name form", email: "alice <a@b.com>", password: "Secret123"},
		{name: "angle brackets only", email: "<a@b.com>", password: "Secret123"},
		{name: "short password", email: "a@b.com", password: "short"},
		{name: "empty password", email: "a@b.com", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestService_Login_IndistinguishableFailures(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	_, badPassword := svc.Login(ctx, "a@b.com", "WrongPass99")
	_, unknownEmail := svc.Login(ctx, "nobody@b.com", "Secret123")

	assert.ErrorIs(t, badPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, badPassword.Error(), unknownEmail.Error())
}

func TestService_Refresh_RotatesAndRejectsReplay(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Second use of the original token must hit not found, not expired.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// The rotated token is live.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestService_Refresh_ExpiredRecordIsRemoved(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	// Force the persisted expiry into the past; the signed token itself is
	// still cryptographically valid.
	err = db.Model(&models.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Refresh_RevokedRecordReportsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	now := time.Now()
	err = db.Model(&models.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).
		Update("revoked_at", &now).Error
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Refresh_BadSignatureDeletesRecord(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	// A record exists for a token this service's key never signed.
	forged := "forged-refresh-token-value-1234567890"
	require.NoError(t, svc.Store.Save(ctx, forged, "subject-1", svc.Kind, time.Now().Add(time.Hour)))

	_, err := svc.Refresh(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Store.Find(ctx, svc.Kind, forged)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Refresh_SubjectGoneDeletesRecord(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, db.Where("email = ?", "a@b.com").Delete(&models.User{}).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Refresh_Validation(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Refresh(ctx, "too-short")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Logout_Idempotent(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	// Unknown token still succeeds.
	require.NoError(t, svc.Logout(ctx, "unknown-refresh-token-1234567890"))

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Logout_EmptyTokenFailsValidation(t *testing.T) {
	svc := newUserService(newTestDB(t))

	err := svc.Logout(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Whoami(t *testing.T) {
	svc := newUserService(newTestDB(t))
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	claims, err := svc.Tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)

	profile, err := svc.Whoami(ctx, claims.Subject)
	require.NoError(t, err)

	assert.Equal(t, claims.Subject, profile.ID)
	assert.Equal(t, "a@b.com", profile.Email)
	assert.Equal(t, []string{"user"}, profile.Roles)
	assert.False(t, profile.CreatedAt.IsZero())
}

func TestService_StoreIsolationBetweenKinds(t *testing.T) {
	db := newTestDB(t)
	userSvc := newUserService(db)
	empSvc := newEmployeeService(db)
	ctx := context.Background()

	// Same email can exist independently per kind.
	_, err := userSvc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)
	empPair, err := empSvc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	// An employee refresh token is invisible to the user flow.
	_, err = userSvc.Refresh(ctx, empPair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// But exchanges fine through its own kind.
	_, err = empSvc.Refresh(ctx, empPair.RefreshToken)
	require.NoError(t, err)
}

func TestService_EmployeeDefaults(t *testing.T) {
	svc := newEmployeeService(newTestDB(t))
	ctx := context.Background()

	pair, err := svc.Register(ctx, "e@corp.com", "Secret123")
	require.NoError(t, err)

	claims, err := svc.Tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"employee"}, claims.Roles)
	assert.True(t, tokens.MatchAudience(claims.Audience, "employee"))
}

func TestService_StoredExpiryMirrorsTokenClaim(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	claims, err := svc.Tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)

	rec, err := svc.Store.Find(ctx, svc.Kind, pair.RefreshToken)
	require.NoError(t, err)

	assert.WithinDuration(t, claims.ExpiresAt.Time, rec.ExpiresAt, time.Second)
}
