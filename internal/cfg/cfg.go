package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"falcon-dash/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port             int
	ModelPath        string
	ScalerPath       string
	TrainingDataPath string
	ONNXLibraryPath  string
	DatasetPath      string
	DataPath         string
	SpaceXAPIURL     string
	RESTTimeout      time.Duration
	ExportPath       string
	LogLevel         string
}

type ConfigFile struct {
	Server struct {
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"server"`

	Model struct {
		ModelPath        string `yaml:"modelPath"`
		ScalerPath       string `yaml:"scalerPath"`
		TrainingDataPath string `yaml:"trainingDataPath"`
		ONNXLibraryPath  string `yaml:"onnxLibraryPath"`
	} `yaml:"model"`

	Data struct {
		DatasetPath string `yaml:"datasetPath"`
		DataPath    string `yaml:"dataPath"`
		ExportPath  string `yaml:"exportPath"`
	} `yaml:"data"`

	API struct {
		BaseURL     string `yaml:"baseURL"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"api"`
}

// Load reads .env (if present) into the environment, then builds settings
// from the YAML file named by CONFIG_FILE or from environment variables
// alone. Environment variables always override YAML values.
func Load() (Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Settings{}, err
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

// loadDotEnv loads a dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.API.RESTTimeout)
	if err != nil {
		restTimeout = 10 * time.Second
	}

	settings := Settings{
		Port:             getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ModelPath:        getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.ModelPath, common.DefaultModelPath)),
		ScalerPath:       getEnvOrDefault(common.EnvScalerPath, orDefault(config.Model.ScalerPath, common.DefaultScalerPath)),
		TrainingDataPath: getEnvOrDefault(common.EnvTrainingDataPath, orDefault(config.Model.TrainingDataPath, common.DefaultTrainingDataPath)),
		ONNXLibraryPath:  getEnvOrDefault(common.EnvONNXLibraryPath, config.Model.ONNXLibraryPath),
		DatasetPath:      getEnvOrDefault(common.EnvDatasetPath, orDefault(config.Data.DatasetPath, common.DefaultDatasetPath)),
		DataPath:         getEnvOrDefault(common.EnvDataPath, orDefault(config.Data.DataPath, common.DefaultDataPath)),
		SpaceXAPIURL:     getEnvOrDefault(common.EnvSpaceXAPIURL, orDefault(config.API.BaseURL, common.DefaultSpaceXAPIURL)),
		RESTTimeout:      getDurationOrDefault(common.EnvRESTTimeout, restTimeout),
		ExportPath:       getEnvOrDefault(common.EnvExportPath, config.Data.ExportPath),
		LogLevel:         strings.ToLower(getEnvOrDefault(common.EnvLogLevel, orDefault(config.Server.LogLevel, common.DefaultLogLevel))),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Port:             getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelPath:        getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ScalerPath:       getEnvOrDefault(common.EnvScalerPath, common.DefaultScalerPath),
		TrainingDataPath: getEnvOrDefault(common.EnvTrainingDataPath, common.DefaultTrainingDataPath),
		ONNXLibraryPath:  os.Getenv(common.EnvONNXLibraryPath), // optional
		DatasetPath:      getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		DataPath:         getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		SpaceXAPIURL:     getEnvOrDefault(common.EnvSpaceXAPIURL, common.DefaultSpaceXAPIURL),
		RESTTimeout:      getDurationOrDefault(common.EnvRESTTimeout, 10*time.Second),
		ExportPath:       os.Getenv(common.EnvExportPath), // optional
		LogLevel:         strings.ToLower(getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < 1024 || settings.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got %d", settings.Port)
	}

	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.ScalerPath == "" {
		return fmt.Errorf("scaler path cannot be empty")
	}
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}

	if !strings.HasPrefix(settings.SpaceXAPIURL, "http://") && !strings.HasPrefix(settings.SpaceXAPIURL, "https://") {
		return fmt.Errorf("SpaceX API URL must be http(s), got %q", settings.SpaceXAPIURL)
	}

	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}

	if lvl, err := zerolog.ParseLevel(settings.LogLevel); err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
