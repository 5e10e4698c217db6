package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"goze/internal/models"
	"goze/internal/ratelimit"
	"goze/internal/testutil"
	"goze/internal/token"
)

const testSecret = "auth-service-test-secret-auth-service-test-secret"

type stubLimiter struct {
	err   error
	calls int
}

func (l *stubLimiter) Allow(_ context.Context, _ string) error {
	l.calls++
	return l.err
}

type authFixture struct {
	db      *gorm.DB
	users   UserServicer
	issuer  *token.Issuer
	limiter *stubLimiter
	svc     AuthServicer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	issuer, err := token.NewIssuer(testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	users := NewUserService(db, DefaultLockoutPolicy)
	limiter := &stubLimiter{}
	return &authFixture{
		db:      db,
		users:   users,
		issuer:  issuer,
		limiter: limiter,
		svc:     NewAuthService(users, issuer, limiter, NewAuditService(db)),
	}
}

func (f *authFixture) reload(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := f.users.GetUserByID(id)
	require.NoError(t, err)
	return user
}

func TestLogin(t *testing.T) {
	t.Run("success_issues_pair_and_resets_counter", func(t *testing.T) {
		f := newAuthFixture(t)
		user := testutil.CreateTestUserWithUsername(t, f.db, "alice")
		f.db.Exec("UPDATE users SET failed_login_attempts = 3 WHERE id = ?", user.ID)

		res, err := f.svc.Login(context.Background(), "alice", testutil.TestPassword, "10.0.0.1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Tokens.AccessToken)
		assert.NotEmpty(t, res.Tokens.RefreshToken)

		claims, err := f.issuer.Validate(res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)

		reloaded := f.reload(t, user.ID)
		assert.Equal(t, 0, reloaded.FailedLoginAttempts)
		assert.NotNil(t, reloaded.LastLoginAt)
	})

	t.Run("email_login", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "carol")

		_, err := f.svc.Login(context.Background(), "carol@test.com", testutil.TestPassword, "10.0.0.1")
		require.NoError(t, err)
	})

	t.Run("unknown_user_does_not_count", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(context.Background(), "ghost", "whatever", "10.0.0.1")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("wrong_password_increments_counter", func(t *testing.T) {
		f := newAuthFixture(t)
		user := testutil.CreateTestUserWithUsername(t, f.db, "dave")

		_, err := f.svc.Login(context.Background(), "dave", "wrong", "10.0.0.1")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		assert.Equal(t, 1, f.reload(t, user.ID).FailedLoginAttempts)
	})

	t.Run("lockout_after_five_failures", func(t *testing.T) {
		f := newAuthFixture(t)
		user := testutil.CreateTestUserWithUsername(t, f.db, "erin")

		for i := 0; i < 5; i++ {
			_, err := f.svc.Login(context.Background(), "erin", "wrong", "10.0.0.1")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err := f.svc.Login(context.Background(), "erin", testutil.TestPassword, "10.0.0.1")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		reloaded := f.reload(t, user.ID)
		assert.Equal(t, 5, reloaded.FailedLoginAttempts, "locked path must not increment")
		require.NotNil(t, reloaded.LockedUntil)
		assert.True(t, reloaded.LockedUntil.After(time.Now().Add(29*time.Minute)))
	})

	t.Run("disabled_account_does_not_count", func(t *testing.T) {
		f := newAuthFixture(t)
		user := testutil.CreateTestUserWithUsername(t, f.db, "frank")
		f.db.Model(user).Update("is_active", false)

		_, err := f.svc.Login(context.Background(), "frank", "wrong", "10.0.0.1")
		testutil.AssertAppError(t, err, "ACCOUNT_DISABLED")
		assert.Equal(t, 0, f.reload(t, user.ID).FailedLoginAttempts)
	})

	t.Run("rate_limited", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "gina")
		f.limiter.err = ratelimit.ErrLimitExceeded

		_, err := f.svc.Login(context.Background(), "gina", testutil.TestPassword, "10.0.0.1")
		testutil.AssertAppError(t, err, "RATE_LIMIT_EXCEEDED")
	})

	t.Run("limiter_failure_fails_open", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "hank")
		f.limiter.err = errors.New("redis: connection refused")

		_, err := f.svc.Login(context.Background(), "hank", testutil.TestPassword, "10.0.0.1")
		require.NoError(t, err)
	})
}

func TestLogin_RateLimitBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	issuer, err := token.NewIssuer(testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	limiter, err := ratelimit.NewMemoryLimiter(ratelimit.Policy{Capacity: 5, Window: time.Minute})
	require.NoError(t, err)

	svc := NewAuthService(NewUserService(db, DefaultLockoutPolicy), issuer, limiter, NewAuditService(db))
	testutil.CreateTestUserWithUsername(t, db, "ivan")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), "ivan", testutil.TestPassword, "192.168.1.1")
		require.NoError(t, err, "attempt %d", i+1)
	}
	_, err = svc.Login(context.Background(), "ivan", testutil.TestPassword, "192.168.1.1")
	testutil.AssertAppError(t, err, "RATE_LIMIT_EXCEEDED")

	_, err = svc.Login(context.Background(), "ivan", testutil.TestPassword, "192.168.1.2")
	require.NoError(t, err, "other clients keep their own bucket")
}

func TestRegister(t *testing.T) {
	t.Run("creates_user_and_pair", func(t *testing.T) {
		f := newAuthFixture(t)

		res, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "newbie", Email: "newbie@example.com", Password: "s3cret!!", FirstName: "New", LastName: "Bie",
		}, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "newbie", res.User.Username)
		assert.True(t, res.User.IsActive)

		subject, err := f.issuer.SubjectOf(res.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "newbie", subject)
		assert.Equal(t, 1, f.limiter.calls)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "taken")

		_, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "taken", Email: "other@example.com", Password: "s3cret!!",
		}, "10.0.0.1")
		testutil.AssertAppError(t, err, "RESOURCE_ALREADY_EXISTS")
	})

	t.Run("rate_limited", func(t *testing.T) {
		f := newAuthFixture(t)
		f.limiter.err = ratelimit.ErrLimitExceeded

		_, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "late", Email: "late@example.com", Password: "s3cret!!",
		}, "10.0.0.1")
		testutil.AssertAppError(t, err, "RATE_LIMIT_EXCEEDED")
	})
}

func TestRefresh(t *testing.T) {
	t.Run("issues_new_pair", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "jack")
		pair, err := f.issuer.IssuePair("jack")
		require.NoError(t, err)

		res, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "jack", res.User.Username)

		subject, err := f.issuer.SubjectOf(res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "jack", subject)
	})

	t.Run("garbage", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Refresh(context.Background(), "not.a.token")
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
	})

	t.Run("empty", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Refresh(context.Background(), "")
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
	})

	t.Run("unknown_subject", func(t *testing.T) {
		f := newAuthFixture(t)
		pair, err := f.issuer.IssuePair("nobody")
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
	})

	t.Run("disabled_user", func(t *testing.T) {
		f := newAuthFixture(t)
		user := testutil.CreateTestUserWithUsername(t, f.db, "kate")
		f.db.Model(user).Update("is_active", false)
		pair, err := f.issuer.IssuePair("kate")
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
	})

	t.Run("other_key", func(t *testing.T) {
		f := newAuthFixture(t)
		testutil.CreateTestUserWithUsername(t, f.db, "liam")
		other, err := token.NewIssuer("a-completely-different-signing-secret-value", time.Hour, time.Hour)
		require.NoError(t, err)
		pair, err := other.IssuePair("liam")
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
	})
}

func TestValidate(t *testing.T) {
	f := newAuthFixture(t)
	testutil.CreateTestUserWithUsername(t, f.db, "mia")

	access, err := f.issuer.IssueAccessToken("mia")
	require.NoError(t, err)

	info, err := f.svc.Validate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, "mia", info.Subject)
	assert.True(t, info.ExpiresAt.After(time.Now()))

	expiredIssuer, err := token.NewIssuer(testSecret, time.Minute, time.Minute,
		token.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	expired, err := expiredIssuer.IssueAccessToken("mia")
	require.NoError(t, err)

	_, err = f.svc.Validate(context.Background(), expired)
	testutil.AssertAppError(t, err, "INVALID_TOKEN")
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	user := testutil.CreateTestUserWithUsername(t, f.db, "noah")

	access, err := f.issuer.IssueAccessToken("noah")
	require.NoError(t, err)

	got, err := f.svc.Authenticate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	f.db.Model(user).Update("is_active", false)
	_, err = f.svc.Authenticate(context.Background(), access)
	testutil.AssertAppError(t, err, "ACCOUNT_DISABLED")
}
