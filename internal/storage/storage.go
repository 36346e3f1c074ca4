// Package storage persists dashboard-local state in BoltDB: the operator's
// preferences (chart interval, draft symbol and mode) and a journal of
// issued commands. Backend entities are never stored here.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"botdash/internal/model"

	"go.etcd.io/bbolt"
)

const (
	prefsBucket    = "preferences" // Bucket name for operator preferences
	commandsBucket = "commands"    // Bucket name for the command journal

	dbFile = "botdash.db"

	keyInterval = "interval"
	keySymbol   = "symbol"
	keyMode     = "mode"
)

// Store provides persistent storage using BoltDB. It is safe for
// concurrent use.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// New opens (or creates) the database under dataPath and creates the
// buckets it needs.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(prefsBucket)); err != nil {
			return fmt.Errorf("create preferences bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(commandsBucket)); err != nil {
			return fmt.Errorf("create commands bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Preferences are restored on start-up. Zero fields were never saved.
type Preferences struct {
	Interval model.Interval
	Symbol   string
	Mode     model.TradingMode
}

func (s *Store) LoadPreferences() (Preferences, error) {
	var p Preferences
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(prefsBucket))
		p.Interval = model.Interval(b.Get([]byte(keyInterval)))
		p.Symbol = string(b.Get([]byte(keySymbol)))
		p.Mode = model.TradingMode(b.Get([]byte(keyMode)))
		return nil
	})
	if err != nil {
		return Preferences{}, err
	}

	// Drop values a newer or older build would not accept.
	if _, err := model.ParseInterval(string(p.Interval)); err != nil {
		p.Interval = ""
	}
	if _, err := model.ParseTradingMode(string(p.Mode)); err != nil {
		p.Mode = ""
	}
	return p, nil
}

func (s *Store) SaveInterval(iv model.Interval) error {
	return s.put(prefsBucket, keyInterval, []byte(iv))
}

// SaveDraft stores the pending config edit so it survives a restart.
func (s *Store) SaveDraft(symbol string, mode model.TradingMode) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(prefsBucket))
		if err := b.Put([]byte(keySymbol), []byte(symbol)); err != nil {
			return err
		}
		return b.Put([]byte(keyMode), []byte(mode))
	})
}

func (s *Store) put(bucket, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), value)
	})
}

// CommandRecord is one journal entry.
type CommandRecord struct {
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	Detail  string    `json:"detail,omitempty"`
	Result  string    `json:"result"`
}

// RecordCommand appends to the journal. Keys are "<unixnano>_<command>" with
// the timestamp zero padded so byte order is time order.
func (s *Store) RecordCommand(command, detail, result string) error {
	rec := CommandRecord{Time: s.now(), Command: command, Detail: detail, Result: result}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(commandsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal command: %w", err)
		}

		key := commandKey(rec.Time, command)
		// same-nanosecond entries would collide; bump until free
		for b.Get(key) != nil {
			rec.Time = rec.Time.Add(time.Nanosecond)
			key = commandKey(rec.Time, command)
		}
		return b.Put(key, data)
	})
}

func commandKey(t time.Time, command string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", t.UnixNano(), command))
}

// RecentCommands returns up to limit entries, newest first.
func (s *Store) RecentCommands(limit int) ([]CommandRecord, error) {
	var records []CommandRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(commandsBucket)).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(records) < limit); k, v = c.Prev() {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// CommandsInRange returns entries between start and end inclusive, oldest first.
func (s *Store) CommandsInRange(start, end time.Time) ([]CommandRecord, error) {
	var records []CommandRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(commandsBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		// '~' sorts after every command name
		endKey := []byte(fmt.Sprintf("%020d~", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && compareKeys(k, endKey) <= 0; k, v = c.Next() {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
