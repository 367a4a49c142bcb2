package account

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCreate(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not generate an ID")
	}
	if !strings.HasPrefix(user.ID, "usr-") {
		t.Errorf("ID = %q, want usr- prefix", user.ID)
	}
	if user.Token == "" {
		t.Error("Create() did not issue a token")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	first := newTestUser("ada@example.com")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	second := newTestUser("ada@example.com")
	err := repo.Create(ctx, second)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("second Create() error = %v, want ErrEmailExists", err)
	}

	// The first account is untouched
	got, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Token != first.Token {
		t.Errorf("token changed after duplicate registration: %q != %q", got.Token, first.Token)
	}
}

func TestGetByToken(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByToken(ctx, user.Token)
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}

	if _, err := repo.GetByToken(ctx, "no-such-token"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByToken(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestGetByCredentials(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("exact match returns stored token", func(t *testing.T) {
		got, err := repo.GetByCredentials(ctx, "ada@example.com", "hunter2")
		if err != nil {
			t.Fatalf("GetByCredentials() error = %v", err)
		}
		if got.Token != user.Token {
			t.Error("login must return the existing token, not rotate it")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := repo.GetByCredentials(ctx, "ada@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByCredentials(ctx, "nobody@example.com", "hunter2")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("only present fields change", func(t *testing.T) {
		got, err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{TimeZone: "Europe/London"})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if got.TimeZone != "Europe/London" {
			t.Errorf("TimeZone = %q, want %q", got.TimeZone, "Europe/London")
		}
		if got.FirstName != "Ada" || got.LastName != "Lovelace" || got.Gender != "female" {
			t.Errorf("untouched fields changed: %+v", got)
		}
	})

	t.Run("multiple fields", func(t *testing.T) {
		got, err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{FirstName: "Augusta", Gender: "other"})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if got.FirstName != "Augusta" || got.Gender != "other" {
			t.Errorf("fields not applied: %+v", got)
		}
		if got.TimeZone != "Europe/London" {
			t.Errorf("TimeZone reset to %q", got.TimeZone)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.UpdateProfile(ctx, "usr-missing", ProfileUpdate{FirstName: "X"})
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestUpdateAvatar(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.UpdateAvatar(ctx, user.ID, "/uploads/av-123.png")
	if err != nil {
		t.Fatalf("UpdateAvatar() error = %v", err)
	}
	if got.Avatar != "/uploads/av-123.png" {
		t.Errorf("Avatar = %q, want set path", got.Avatar)
	}

	got, err = repo.UpdateAvatar(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("UpdateAvatar(clear) error = %v", err)
	}
	if got.Avatar != "" {
		t.Errorf("Avatar = %q after clear, want empty", got.Avatar)
	}
}

func TestUserJSON_NeverIncludesPassword(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := newTestUser("ada@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshalling user: %v", err)
	}
	if strings.Contains(string(data), "hunter2") || strings.Contains(string(data), "password") {
		t.Errorf("serialised user leaks password: %s", data)
	}
}

func TestCount(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if err := repo.Create(ctx, newTestUser(email)); err != nil {
			t.Fatalf("Create(%s) error = %v", email, err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
