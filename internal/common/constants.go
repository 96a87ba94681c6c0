package common

// Environment variable keys
const (
	EnvConfigFile       = "CONFIG_FILE"
	EnvPort             = "FALCON_PORT"
	EnvModelPath        = "MODEL_PATH"
	EnvScalerPath       = "SCALER_PATH"
	EnvTrainingDataPath = "TRAINING_DATA_PATH"
	EnvONNXLibraryPath  = "ONNX_LIBRARY_PATH"
	EnvDatasetPath      = "DATASET_PATH"
	EnvDataPath         = "DATA_PATH"
	EnvSpaceXAPIURL     = "SPACEX_API_URL"
	EnvRESTTimeout      = "REST_TIMEOUT"
	EnvExportPath       = "EXPORT_PATH"
	EnvLogLevel         = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultPort             = 8501
	DefaultModelPath        = "models/best_model.json"
	DefaultScalerPath       = "models/scaler.json"
	DefaultTrainingDataPath = "data/processed/processed_for_training.csv"
	DefaultDatasetPath      = "data/interim/cleaned_launches.csv"
	DefaultDataPath         = "data/raw"
	DefaultSpaceXAPIURL     = "https://api.spacexdata.com"
	DefaultLogLevel         = "info"
)

// Training target column in the processed CSV.
const TargetColumn = "class"

// Categorical fields expanded into indicator columns.
const (
	FieldOrbit      = "Orbit"
	FieldLaunchSite = "LaunchSiteName"
)

// Prediction form bounds
const (
	MinFlightNumber     = 1
	DefaultFlightNumber = 50
	MinPayloadMass      = 0
	MaxPayloadMass      = 15000
	PayloadMassStep     = 100
	DefaultPayloadMass  = 5000
	MinFlights          = 0
	DefaultFlights      = 1
)

// OrbitCodes lists every orbit the prediction form offers.
var OrbitCodes = []string{
	"LEO", "GTO", "ISS", "SSO", "PO", "MEO",
	"HEO", "GEO", "TLI", "SO", "VLEO",
	"ES-L1", "HCO", "Unknown",
}

// LaunchSites lists every launch site the prediction form offers.
var LaunchSites = []string{
	"CCSFS SLC 40 (Florida)",
	"KSC LC 39A (Florida)",
	"VAFB SLC 4E (California)",
	"Kwajalein Atoll (Marshall Islands)",
}

// SiteLocation is a launch site position with its historical landing rate.
type SiteLocation struct {
	Name        string
	Latitude    float64
	Longitude   float64
	SuccessRate float64
}

// SiteLocations is the precomputed ground truth for the launch site map.
var SiteLocations = []SiteLocation{
	{Name: "CCSFS SLC 40", Latitude: 28.561857, Longitude: -80.577366, SuccessRate: 0.642857},
	{Name: "VAFB SLC 4E", Latitude: 34.632093, Longitude: -120.610829, SuccessRate: 0.766667},
	{Name: "KSC LC 39A", Latitude: 28.608058, Longitude: -80.603956, SuccessRate: 0.827586},
	{Name: "Kwajalein Atoll", Latitude: 9.047721, Longitude: 167.743129, SuccessRate: 0.0},
}

// Map view defaults (continental US centre).
const (
	MapCenterLatitude  = 39.8283
	MapCenterLongitude = -98.5795
	MapZoom            = 4
)
