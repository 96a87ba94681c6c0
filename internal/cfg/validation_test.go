package cfg

import (
	"strings"
	"testing"
	"time"

	"falcon-dash/internal/common"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		Port:         common.DefaultPort,
		ModelPath:    common.DefaultModelPath,
		ScalerPath:   common.DefaultScalerPath,
		DatasetPath:  common.DefaultDatasetPath,
		DataPath:     common.DefaultDataPath,
		SpaceXAPIURL: common.DefaultSpaceXAPIURL,
		RESTTimeout:  10 * time.Second,
		LogLevel:     "info",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	if err := validateSettings(createValidSettings()); err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"port too low", func(s *Settings) { s.Port = 1023 }, "port"},
		{"port too high", func(s *Settings) { s.Port = 65536 }, "port"},
		{"port lower bound", func(s *Settings) { s.Port = 1024 }, ""},
		{"empty model path", func(s *Settings) { s.ModelPath = "" }, "model path"},
		{"empty scaler path", func(s *Settings) { s.ScalerPath = "" }, "scaler path"},
		{"empty dataset path", func(s *Settings) { s.DatasetPath = "" }, "dataset path"},
		{"empty data path", func(s *Settings) { s.DataPath = "" }, "data path"},
		{"empty training path allowed", func(s *Settings) { s.TrainingDataPath = "" }, ""},
		{"non-http API URL", func(s *Settings) { s.SpaceXAPIURL = "api.spacexdata.com" }, "API URL"},
		{"timeout too short", func(s *Settings) { s.RESTTimeout = 500 * time.Millisecond }, "REST timeout"},
		{"timeout too long", func(s *Settings) { s.RESTTimeout = 2 * time.Minute }, "REST timeout"},
		{"timeout upper bound", func(s *Settings) { s.RESTTimeout = time.Minute }, ""},
		{"unknown log level", func(s *Settings) { s.LogLevel = "loud" }, "log level"},
		{"disabled logging", func(s *Settings) { s.LogLevel = "disabled" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got none", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
