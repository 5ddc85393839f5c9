// Package settings persists interaction and filter settings across sessions
// in the workspace database. Reads are synchronous; failed writes are logged
// and swallowed, since losing a preference must never break answering.
package settings

import (
	"database/sql"
	"log"
	"time"
)

// Setting keys. Values are stored as strings; booleans as "true"/"false".
const (
	KeyAutoAdvance     = "auto_advance"
	KeyDeferCorrection = "defer_correction"
	KeySkipAnswered    = "skip_answered"
	KeyAutoSubmit      = "auto_submit_choice"
	KeyShowRelated     = "show_related_in_list"
	KeyColoring        = "coloring"
	KeySplitByProgram  = "split_by_program"
	KeyFilterTypes     = "filter_types"
	KeyFilterState     = "filter_state"
	KeyPrograms        = "program_ids"
)

// Store is the sqlite-backed key-value store.
type Store struct {
	DB     *sql.DB
	Logger *log.Logger
	Now    func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Get returns the stored value and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.DB.QueryRow(`SELECT value FROM settings WHERE key=?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value. Write errors are logged and swallowed; settings are a
// convenience, not a correctness dependency.
func (s *Store) Set(key, value string) {
	ts := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.Exec(
		`INSERT INTO settings(key,value,updated_at) VALUES (?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, ts)
	if err != nil {
		s.logger().Printf("settings: write %s failed: %v", key, err)
	}
}

// Del removes a key. Errors are swallowed like Set's.
func (s *Store) Del(key string) {
	if _, err := s.DB.Exec(`DELETE FROM settings WHERE key=?`, key); err != nil {
		s.logger().Printf("settings: delete %s failed: %v", key, err)
	}
}

// Bool reads a boolean setting with a default.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	return v == "true"
}

// SetBool stores a boolean setting.
func (s *Store) SetBool(key string, v bool) {
	if v {
		s.Set(key, "true")
		return
	}
	s.Set(key, "false")
}

// All returns every stored setting, for display.
func (s *Store) All() map[string]string {
	rows, err := s.DB.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return map[string]string{}
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}
