package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tamsirfall/annonces-market-bot/models"
)

func newTestStore(t *testing.T, dbPath string) *Store {
	t.Helper()
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")

	store := newTestStore(t, dbPath)
	user := &models.SessionUser{ID: 12, Email: "fatou@example.sn", Role: models.RoleVendeur}
	if err := store.Save("tok-abc", user, 350); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	reopened := newTestStore(t, dbPath)
	if got := reopened.Token(); got != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", got)
	}
	if got := reopened.Balance(); got != 350 {
		t.Errorf("balance = %d, want 350", got)
	}
	loaded := reopened.User()
	if loaded == nil || loaded.Email != "fatou@example.sn" || loaded.Role != models.RoleVendeur {
		t.Errorf("user = %+v, want the persisted vendeur", loaded)
	}
	if !reopened.IsAuthenticated() {
		t.Error("a restored session is authenticated")
	}
}

func TestClearLogsOut(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	store := newTestStore(t, dbPath)
	if err := store.Save("tok", &models.SessionUser{ID: 1}, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("cleared session must not be authenticated")
	}
	if store.Balance() != 0 {
		t.Errorf("balance = %d, want 0", store.Balance())
	}
	store.Close()

	reopened := newTestStore(t, dbPath)
	if reopened.IsAuthenticated() {
		t.Error("logout must survive a restart")
	}
}

func TestSetBalanceNotifiesOnlyOnChange(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))
	if err := store.Save("tok", &models.SessionUser{ID: 1}, 100); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var calls []int
	cancel := store.SubscribeBalance(func(balance int) {
		calls = append(calls, balance)
	})
	defer cancel()

	store.SetBalance(100) // same value, no notification
	store.SetBalance(80)
	store.SetBalance(80) // repeat, no notification
	store.SetBalance(200)

	want := []int{80, 200}
	if len(calls) != len(want) {
		t.Fatalf("notifications = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("notification %d = %d, want %d", i, calls[i], want[i])
		}
	}
}

func TestUnsubscribedViewStopsReceiving(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))
	if err := store.Save("tok", &models.SessionUser{ID: 1}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	count := 0
	cancel := store.SubscribeBalance(func(int) { count++ })

	store.SetBalance(10)
	cancel()
	store.SetBalance(20)

	if count != 1 {
		t.Errorf("notifications after cancel = %d, want 1", count)
	}
}

func TestSaveNotifiesWhenBalanceChanges(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))
	if err := store.Save("tok", &models.SessionUser{ID: 1}, 50); err != nil {
		t.Fatalf("Save: %v", err)
	}

	count := 0
	cancel := store.SubscribeBalance(func(int) { count++ })
	defer cancel()

	// new token, same balance: no notification
	if err := store.Save("tok2", &models.SessionUser{ID: 1}, 50); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if count != 0 {
		t.Fatalf("notifications = %d, a same-balance save must stay silent", count)
	}
	if err := store.Save("tok3", &models.SessionUser{ID: 1}, 75); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if count != 1 {
		t.Errorf("notifications = %d, want 1", count)
	}
}

func TestTokenExpired(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))

	if !store.TokenExpired() {
		t.Error("an empty session counts as expired")
	}

	expired := signedToken(t, jwt.MapClaims{
		"sub": "12",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if err := store.Save(expired, &models.SessionUser{ID: 12}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.TokenExpired() {
		t.Error("a token with exp in the past is expired")
	}

	fresh := signedToken(t, jwt.MapClaims{
		"sub": "12",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err := store.Save(fresh, &models.SessionUser{ID: 12}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.TokenExpired() {
		t.Error("a token with exp in the future is not expired")
	}
}

func TestTokenRole(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))

	token := signedToken(t, jwt.MapClaims{
		"sub":  "12",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if err := store.Save(token, &models.SessionUser{ID: 12}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.TokenRole(); got != models.RoleAdmin {
		t.Errorf("role = %q, want ADMIN", got)
	}

	noRole := signedToken(t, jwt.MapClaims{"sub": "12"})
	if err := store.Save(noRole, &models.SessionUser{ID: 12}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.TokenRole(); got != "" {
		t.Errorf("role = %q, want empty for a token without the claim", got)
	}
}
