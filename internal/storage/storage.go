// Package storage provides persistent storage for the landing prediction
// dashboard. It uses BoltDB to keep the latest launch API snapshot and a
// log of served predictions.
//
// The snapshot file is written by the fetch command and read by the
// dashboard through short-lived read-only handles, so the two processes
// never hold the file lock for long.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"falcon-dash/internal/spacex"

	"go.etcd.io/bbolt"
)

const (
	SnapshotFile = "launches.db"

	launchesBucket = "launches" // Raw launch records keyed by API position
	metaBucket     = "meta"     // Snapshot metadata

	metaFetchedAt = "fetched_at"
	metaCount     = "count"
)

// ErrNoSnapshot reports that no launch snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no launch snapshot")

// Store provides persistent storage backed by one BoltDB file.
type Store struct {
	db *bbolt.DB
}

// New opens (creating if needed) the snapshot database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataPath, SnapshotFile), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(launchesBucket)); err != nil {
			return fmt.Errorf("create launches bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing snapshot database without taking the
// write lock. A missing file is ErrNoSnapshot.
func OpenReadOnly(dataPath string) (*Store, error) {
	path := filepath.Join(dataPath, SnapshotFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Snapshot is the stored result of one launch API fetch.
type Snapshot struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Count     int               `json:"count"`
	Records   []json.RawMessage `json:"-"`
}

// SaveSnapshot atomically replaces the stored launch records.
func (s *Store) SaveSnapshot(records []spacex.Record, fetchedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(launchesBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("clear launches bucket: %w", err)
		}
		b, err := tx.CreateBucket([]byte(launchesBucket))
		if err != nil {
			return fmt.Errorf("create launches bucket: %w", err)
		}

		for i, r := range records {
			if !json.Valid(r.Raw) {
				return fmt.Errorf("record %d is not valid JSON", i)
			}
			if err := b.Put(recordKey(i), r.Raw); err != nil {
				return fmt.Errorf("store record %d: %w", i, err)
			}
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if err := meta.Put([]byte(metaFetchedAt), []byte(fetchedAt.UTC().Format(time.RFC3339Nano))); err != nil {
			return err
		}
		return meta.Put([]byte(metaCount), []byte(strconv.Itoa(len(records))))
	})
}

// Snapshot reads the stored launch records in API order.
func (s *Store) Snapshot() (Snapshot, error) {
	var snap Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		if meta == nil || meta.Get([]byte(metaFetchedAt)) == nil {
			return ErrNoSnapshot
		}

		fetchedAt, err := time.Parse(time.RFC3339Nano, string(meta.Get([]byte(metaFetchedAt))))
		if err != nil {
			return fmt.Errorf("parse fetched_at: %w", err)
		}
		snap.FetchedAt = fetchedAt

		b := tx.Bucket([]byte(launchesBucket))
		if b == nil {
			return ErrNoSnapshot
		}
		// Values are only valid inside the transaction.
		return b.ForEach(func(_, v []byte) error {
			snap.Records = append(snap.Records, append(json.RawMessage(nil), v...))
			return nil
		})
	})
	if err != nil {
		return Snapshot{}, err
	}

	snap.Count = len(snap.Records)
	return snap, nil
}

// ExportJSON writes the stored records to path as an indented JSON array.
func (s *Store) ExportJSON(path string) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}

	records := snap.Records
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func recordKey(i int) []byte {
	return []byte(fmt.Sprintf("%08d", i))
}
