package services

import (
	"testing"
	"time"

	"goze/internal/models"
	"goze/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		user, err := svc.CreateUser("alice", "alice@example.com", "password123", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected non-empty user ID")
		}
		if user.Username != "alice" {
			t.Errorf("expected username alice, got %s", user.Username)
		}
		if user.FirstName != "Alice" {
			t.Errorf("expected first name Alice, got %s", user.FirstName)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		_, err := svc.CreateUser("dup", "one@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("dup", "two@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "RESOURCE_ALREADY_EXISTS")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		_, err := svc.CreateUser("first", "dup@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("second", "DUP@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "RESOURCE_ALREADY_EXISTS")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		_, err := svc.CreateUser("", "x@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateUser("x", "x@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		user, err := svc.CreateUser("alice", "Alice@EXAMPLE.COM", "password123", "", "")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})

	t.Run("password_is_hashed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		user, err := svc.CreateUser("hash", "hash@example.com", "mypassword", "", "")
		testutil.AssertNoError(t, err)

		if user.Password == "mypassword" {
			t.Error("password should be hashed, not stored as plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("mypassword")); err != nil {
			t.Error("password hash should be valid bcrypt")
		}
	})
}

func TestGetUserByLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db, DefaultLockoutPolicy)

	created := testutil.CreateTestUserWithUsername(t, db, "bob")

	t.Run("by_username", func(t *testing.T) {
		user, err := svc.GetUserByLogin("bob")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("by_email", func(t *testing.T) {
		user, err := svc.GetUserByLogin("BOB@test.com")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.GetUserByLogin("nobody")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db, DefaultLockoutPolicy)

	created := testutil.CreateTestUser(t, db)
	user, err := svc.GetUserByID(created.ID)
	testutil.AssertNoError(t, err)
	if user.Username != created.Username {
		t.Errorf("expected username %s, got %s", created.Username, user.Username)
	}

	_, err = svc.GetUserByID("00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestVerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db, DefaultLockoutPolicy)

	user := testutil.CreateTestUser(t, db)
	if !svc.VerifyPassword(user, testutil.TestPassword) {
		t.Error("expected password verification to succeed")
	}
	if svc.VerifyPassword(user, "wrongpassword") {
		t.Error("expected password verification to fail")
	}
}

func TestRecordFailedLogin(t *testing.T) {
	t.Run("increments_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, DefaultLockoutPolicy)

		user := testutil.CreateTestUser(t, db)
		updated, err := svc.RecordFailedLogin(user, time.Now())
		testutil.AssertNoError(t, err)

		if updated.FailedLoginAttempts != 1 {
			t.Errorf("expected 1 failed attempt, got %d", updated.FailedLoginAttempts)
		}
		if updated.LockedUntil != nil {
			t.Error("expected account not to be locked after one failure")
		}
	})

	t.Run("locks_at_threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, LockoutPolicy{MaxAttempts: 3, Duration: 10 * time.Minute})

		user := testutil.CreateTestUser(t, db)
		now := time.Now()
		var updated *models.User
		var err error
		for i := 0; i < 3; i++ {
			updated, err = svc.RecordFailedLogin(user, now)
			testutil.AssertNoError(t, err)
		}

		if updated.LockedUntil == nil {
			t.Fatal("expected LockedUntil to be set at the threshold")
		}
		if !updated.IsLocked(now.Add(9 * time.Minute)) {
			t.Error("expected account to be locked within the lockout window")
		}
		if updated.IsLocked(now.Add(11 * time.Minute)) {
			t.Error("expected lock to expire after the lockout window")
		}
	})
}

func TestRecordSuccessfulLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db, DefaultLockoutPolicy)

	user := testutil.CreateTestUser(t, db)
	lockUntil := time.Now().Add(15 * time.Minute)
	db.Exec("UPDATE users SET locked_until = ?, failed_login_attempts = 3 WHERE id = ?", lockUntil, user.ID)

	testutil.AssertNoError(t, svc.RecordSuccessfulLogin(user, time.Now()))

	reloaded, err := svc.GetUserByID(user.ID)
	testutil.AssertNoError(t, err)
	if reloaded.FailedLoginAttempts != 0 {
		t.Errorf("expected 0 failed attempts after success, got %d", reloaded.FailedLoginAttempts)
	}
	if reloaded.LockedUntil != nil {
		t.Error("expected lockout to be cleared")
	}
	if reloaded.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set after successful login")
	}
}
