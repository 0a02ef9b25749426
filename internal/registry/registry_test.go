package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/models"
	"github.com/username-escrow/backend/internal/store"
	"go.uber.org/zap"
)

const (
	aliceAddr = "0:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bobAddr   = "0:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestRegistry(t *testing.T) (*Registry, *store.MemoryStore, *events.Recorder) {
	t.Helper()
	st := store.NewMemoryStore()
	rec := &events.Recorder{}
	r := New(st, auth.ContextAuthorizer{}, rec, zap.NewNop())
	r.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r, st, rec
}

func as(address string) context.Context {
	return auth.WithAddress(context.Background(), address)
}

func TestRegister_Success(t *testing.T) {
	r, _, rec := newTestRegistry(t)

	profile, err := r.Register(as(aliceAddr), aliceAddr, "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.Username != "alice" || profile.Address != aliceAddr {
		t.Errorf("profile = %+v", profile)
	}

	got, err := r.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Address != aliceAddr {
		t.Fatalf("Profile = %+v, want owner %s", got, aliceAddr)
	}
	if !got.CreatedAt.Equal(profile.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, profile.CreatedAt)
	}

	registered := rec.OfType(events.EventUserRegistered)
	if len(registered) != 1 || registered[0].Payload["username"] != "alice" {
		t.Errorf("events = %+v, want one user_registered for alice", rec.Events())
	}
}

func TestRegister_TakenAfterwards(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	free, err := r.CheckUsername(ctx, "alice")
	if err != nil || !free {
		t.Fatalf("CheckUsername before register = %v, %v; want true", free, err)
	}

	if _, err := r.Register(as(aliceAddr), aliceAddr, "alice"); err != nil {
		t.Fatal(err)
	}

	free, err = r.CheckUsername(ctx, "alice")
	if err != nil || free {
		t.Fatalf("CheckUsername after register = %v, %v; want false", free, err)
	}

	_, err = r.Register(as(bobAddr), bobAddr, "alice")
	if !errors.Is(err, models.ErrUsernameTaken) {
		t.Fatalf("second register err = %v, want ErrUsernameTaken", err)
	}

	// owner is unchanged
	profile, _ := r.Profile(ctx, "alice")
	if profile.Address != aliceAddr {
		t.Errorf("owner changed to %s", profile.Address)
	}
	if _, found, _ := r.UsernameByAddress(ctx, bobAddr); found {
		t.Error("failed registration must not write the reverse index")
	}
}

func TestRegister_SameOwnerCannotReRegister(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if _, err := r.Register(as(aliceAddr), aliceAddr, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(as(aliceAddr), aliceAddr, "alice"); !errors.Is(err, models.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestRegister_Unauthorized(t *testing.T) {
	r, st, rec := newTestRegistry(t)

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"no session", context.Background()},
		{"other address", as(bobAddr)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Register(tt.ctx, aliceAddr, "alice")
			if !errors.Is(err, models.ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
		})
	}

	if st.Len() != 0 {
		t.Errorf("unauthorized register wrote %d keys", st.Len())
	}
	if len(rec.Events()) != 0 {
		t.Errorf("unauthorized register published %d events", len(rec.Events()))
	}
}

func TestRegister_InvalidUsername(t *testing.T) {
	r, st, _ := newTestRegistry(t)

	for _, name := range []string{"", "ab", "with space", "dash-name"} {
		_, err := r.Register(as(aliceAddr), aliceAddr, name)
		if !errors.Is(err, models.ErrInvalidUsername) {
			t.Errorf("Register(%q) err = %v, want ErrInvalidUsername", name, err)
		}
	}
	if st.Len() != 0 {
		t.Errorf("invalid register wrote %d keys", st.Len())
	}
}

func TestUsernameByAddress(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	if _, found, err := r.UsernameByAddress(ctx, aliceAddr); err != nil || found {
		t.Fatalf("unregistered address: found=%v err=%v", found, err)
	}

	profile, err := r.Register(as(aliceAddr), aliceAddr, "alice")
	if err != nil {
		t.Fatal(err)
	}

	name, found, err := r.UsernameByAddress(ctx, profile.Address)
	if err != nil || !found || name != "alice" {
		t.Fatalf("UsernameByAddress = %q, %v, %v; want alice", name, found, err)
	}
}

func TestUsernameByAddress_LastRegistrationWins(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	if _, err := r.Register(as(aliceAddr), aliceAddr, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(as(aliceAddr), aliceAddr, "alice_two"); err != nil {
		t.Fatal(err)
	}

	name, _, _ := r.UsernameByAddress(ctx, aliceAddr)
	if name != "alice_two" {
		t.Errorf("reverse index = %q, want alice_two", name)
	}

	// the first name stays bound to the same owner
	first, _ := r.Profile(ctx, "alice")
	if first == nil || first.Address != aliceAddr {
		t.Errorf("first profile = %+v", first)
	}
}

func TestProfile_Absent(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	profile, err := r.Profile(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if profile != nil {
		t.Errorf("Profile(nobody) = %+v, want nil", profile)
	}
}
