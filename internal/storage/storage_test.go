package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"falcon-dash/internal/features"
	"falcon-dash/internal/spacex"
)

func testRecords() []spacex.Record {
	return []spacex.Record{
		{Launch: spacex.Launch{Name: "FalconSat", FlightNumber: 1}, Raw: json.RawMessage(`{"name":"FalconSat","flight_number":1}`)},
		{Launch: spacex.Launch{Name: "DemoSat", FlightNumber: 2}, Raw: json.RawMessage(`{"name":"DemoSat","flight_number":2}`)},
		{Launch: spacex.Launch{Name: "Trailblazer", FlightNumber: 3}, Raw: json.RawMessage(`{"name":"Trailblazer","flight_number":3}`)},
	}
}

func TestNew(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "raw")

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, SnapshotFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestSnapshot_Empty(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := store.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Expected ErrNoSnapshot, got %v", err)
	}
	if err := store.ExportJSON(filepath.Join(t.TempDir(), "out.json")); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Expected ErrNoSnapshot from export, got %v", err)
	}
}

func TestSaveSnapshot(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveSnapshot(testRecords(), fetchedAt); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snap, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.FetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected fetched_at %v, got %v", fetchedAt, snap.FetchedAt)
	}
	if snap.Count != 3 {
		t.Fatalf("Expected 3 records, got %d", snap.Count)
	}
	if string(snap.Records[2]) != `{"name":"Trailblazer","flight_number":3}` {
		t.Errorf("Unexpected third record %s", snap.Records[2])
	}

	// A second save replaces the first.
	if err := store.SaveSnapshot(testRecords()[:1], fetchedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}
	snap, err = store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Count != 1 {
		t.Errorf("Expected replacement to leave 1 record, got %d", snap.Count)
	}
}

func TestSaveSnapshot_InvalidRecordRollsBack(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.SaveSnapshot(testRecords(), time.Now()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	bad := append(testRecords(), spacex.Record{Raw: json.RawMessage(`{broken`)})
	if err := store.SaveSnapshot(bad, time.Now()); err == nil {
		t.Fatal("Expected error for invalid record")
	}

	snap, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Count != 3 {
		t.Errorf("Expected previous snapshot to survive, got %d records", snap.Count)
	}
}

func TestOpenReadOnly(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenReadOnly(dir); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Expected ErrNoSnapshot for missing file, got %v", err)
	}

	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.SaveSnapshot(testRecords(), time.Now()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ro, err := OpenReadOnly(dir)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	defer ro.Close()

	snap, err := ro.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Count != 3 {
		t.Errorf("Expected 3 records, got %d", snap.Count)
	}

	if err := ro.SaveSnapshot(testRecords(), time.Now()); err == nil {
		t.Error("Expected write through read-only handle to fail")
	}
}

func TestExportJSON(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.SaveSnapshot(testRecords(), time.Now()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "raw", "spacex_launches.json")
	if err := store.ExportJSON(path); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var exported []map[string]any
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if len(exported) != 3 || exported[1]["name"] != "DemoSat" {
		t.Errorf("Unexpected export contents: %v", exported)
	}

	want := "[\n    {\n        \"name\": \"FalconSat\",\n"
	if string(data[:len(want)]) != want {
		t.Errorf("Expected four-space indentation, got %q", data[:len(want)])
	}
}

func TestPredictionLog(t *testing.T) {
	dir := t.TempDir()
	log, err := NewPredictionLog(dir)
	if err != nil {
		t.Fatalf("NewPredictionLog failed: %v", err)
	}
	defer log.Close()

	empty, err := log.RecentPredictions(10)
	if err != nil {
		t.Fatalf("RecentPredictions failed: %v", err)
	}
	if len(empty) != 0 || empty == nil {
		t.Errorf("Expected empty non-nil slice, got %v", empty)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := log.StorePrediction(PredictionRecord{
			RequestID:   string(rune('a' + i)),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Input:       features.RawLaunch{FlightNumber: 50 + i, Orbit: "LEO"},
			Class:       "SUCCESS",
			Probability: 0.9,
		})
		if err != nil {
			t.Fatalf("StorePrediction failed: %v", err)
		}
	}

	recent, err := log.RecentPredictions(3)
	if err != nil {
		t.Fatalf("RecentPredictions failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recent))
	}
	if recent[0].RequestID != "e" || recent[2].RequestID != "c" {
		t.Errorf("Expected newest first, got %s..%s", recent[0].RequestID, recent[2].RequestID)
	}
	if recent[0].Input.FlightNumber != 54 {
		t.Errorf("Expected input to round-trip, got flight %d", recent[0].Input.FlightNumber)
	}

	if _, err := os.Stat(filepath.Join(dir, SnapshotFile)); !os.IsNotExist(err) {
		t.Error("Prediction log must not create the snapshot file")
	}
}
