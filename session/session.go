package session

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// Store persists the authentication session (token, user, cached credit
// balance) across restarts and exposes the balance as an observable value.
// The locally held balance is a cache of the server-side one: the store is
// its single writer, every view a reader.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	token   string
	user    *models.SessionUser
	balance int

	subscribers map[int64]func(int)
	nextSubID   int64
}

// NewStore opens the session database and loads any persisted session
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_json TEXT NOT NULL,
			credit_balance INTEGER NOT NULL DEFAULT 0,
			saved_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create session schema")
	}

	store := &Store{
		db:          db,
		subscribers: make(map[int64]func(int)),
	}
	if err := store.load(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// load reads the persisted session, if any
func (s *Store) load() error {
	var token, userJSON string
	var balance int
	err := s.db.QueryRow(
		"SELECT token, user_json, credit_balance FROM session WHERE id = 1").
		Scan(&token, &userJSON, &balance)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load session")
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return errors.Wrap(err, "failed to decode persisted user")
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.balance = balance
	s.mu.Unlock()
	return nil
}

// Save persists a fresh session, replacing any previous one
func (s *Store) Save(token string, user *models.SessionUser, balance int) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "failed to encode user")
	}

	_, err = s.db.Exec(`
		INSERT INTO session (id, token, user_json, credit_balance, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_json = excluded.user_json,
			credit_balance = excluded.credit_balance,
			saved_at = excluded.saved_at
	`, token, string(userJSON), balance, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to save session")
	}

	s.mu.Lock()
	changed := s.balance != balance
	s.token = token
	s.user = user
	s.balance = balance
	s.mu.Unlock()

	if changed {
		s.notify(balance)
	}
	return nil
}

// Clear drops the persisted session (logout)
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM session WHERE id = 1"); err != nil {
		return errors.Wrap(err, "failed to clear session")
	}
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.balance = 0
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token, empty when logged out.
// Satisfies api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the authenticated user, nil when logged out
func (s *Store) User() *models.SessionUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a session is present
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Balance returns the cached credit balance. Eventually consistent with the
// server; good enough for UI gating, never for financial decisions.
func (s *Store) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// SetBalance updates the cached balance and persists it. Subscribers are only
// notified on an actual change.
func (s *Store) SetBalance(balance int) {
	s.mu.Lock()
	if s.balance == balance {
		s.mu.Unlock()
		return
	}
	s.balance = balance
	s.mu.Unlock()

	if _, err := s.db.Exec("UPDATE session SET credit_balance = ? WHERE id = 1", balance); err != nil {
		// in-memory cache already updated; persistence catches up on next Save
		log.Printf("Failed to persist credit balance: %v", err)
	}
	s.notify(balance)
}

// SubscribeBalance registers fn for balance changes and returns the
// unsubscribe function. Views must unsubscribe on teardown.
func (s *Store) SubscribeBalance(fn func(balance int)) (cancel func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify calls subscribers outside the lock
func (s *Store) notify(balance int) {
	s.mu.Lock()
	fns := make([]func(int), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(balance)
	}
}

// TokenExpired reports whether the stored token carries an exp claim in the
// past. The signature is not verified: this is a local pre-check so the UI
// can prompt for a new login before a request bounces.
func (s *Store) TokenExpired() bool {
	token := s.Token()
	if token == "" {
		return true
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// TokenRole returns the role claim of the stored token, empty when absent
func (s *Store) TokenRole() models.Role {
	token := s.Token()
	if token == "" {
		return ""
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return models.Role(role)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
