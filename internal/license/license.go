// Package license implements the access gate consulted before pipeline
// invocation in service contexts. A token is "<id>:<hmac>"; verification
// checks the signature and then the store's active flag. The pipeline
// itself has no awareness of licensing.
package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a license id is absent from the store.
var ErrNotFound = errors.New("license not found")

// Record is one issued license.
type Record struct {
	ID            string
	CustomerEmail string
	Active        bool
}

// Store persists license records in sqlite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if necessary initialises) the license database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open license db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS licenses (
			license_id TEXT PRIMARY KEY,
			customer_email TEXT,
			active INTEGER DEFAULT 1
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init license schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces a license record.
func (s *Store) Upsert(rec Record) error {
	_, err := s.db.Exec(
		`REPLACE INTO licenses (license_id, customer_email, active) VALUES (?, ?, ?)`,
		rec.ID, rec.CustomerEmail, boolToInt(rec.Active),
	)
	if err != nil {
		return fmt.Errorf("upsert license %s: %w", rec.ID, err)
	}
	return nil
}

// IsActive reports whether the license exists and is active.
func (s *Store) IsActive(id string) (bool, error) {
	var active int
	err := s.db.QueryRow(`SELECT active FROM licenses WHERE license_id = ?`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query license %s: %w", id, err)
	}
	return active != 0, nil
}

// Verifier checks signed tokens against the store.
type Verifier struct {
	secret []byte
	store  *Store
	// Bypass short-circuits verification; meant for local development.
	Bypass bool
}

// NewVerifier builds a verifier over the given secret and store.
func NewVerifier(secret string, store *Store) *Verifier {
	return &Verifier{secret: []byte(secret), store: store}
}

// Sign issues a token for a license id.
func (v *Verifier) Sign(id string) string {
	return id + ":" + v.signature(id)
}

// Verify reports whether the token is well formed, correctly signed, and
// refers to an active license.
func (v *Verifier) Verify(token string) bool {
	if v.Bypass {
		return true
	}
	if token == "" {
		return false
	}
	id, sig, ok := strings.Cut(token, ":")
	if !ok {
		return false
	}
	if !hmac.Equal([]byte(v.signature(id)), []byte(sig)) {
		return false
	}
	if v.store == nil {
		return false
	}
	active, err := v.store.IsActive(id)
	return err == nil && active
}

func (v *Verifier) signature(id string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
