package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"falcon-dash/internal/features"

	"go.etcd.io/bbolt"
)

const (
	PredictionFile = "predictions.db"

	predictionsBucket = "predictions"
)

// PredictionRecord is one served prediction and the input that produced it.
type PredictionRecord struct {
	RequestID    string             `json:"request_id"`
	Timestamp    time.Time          `json:"timestamp"`
	Input        features.RawLaunch `json:"input"`
	Class        string             `json:"class"`
	Probability  float64            `json:"probability"`
	ModelVersion string             `json:"model_version,omitempty"`
}

// NewPredictionLog opens (creating if needed) the prediction log under
// dataPath. It is a separate file from the launch snapshot so the
// dashboard can keep it open while the fetch command writes snapshots.
func NewPredictionLog(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataPath, PredictionFile), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create predictions bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// StorePrediction appends a prediction. Keys sort by timestamp.
func (s *Store) StorePrediction(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		if err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%020d_%s", record.Timestamp.UnixNano(), record.RequestID)
		return b.Put([]byte(key), data)
	})
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionRecord, error) {
	records := []PredictionRecord{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}
