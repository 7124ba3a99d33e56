// Package config loads pvforecast configuration.
package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSite() (*SiteData, error)
	GetWeatherConfig() (*WeatherData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site      SiteData      `json:"site" yaml:"site"`
	Weather   WeatherData   `json:"weather" yaml:"weather"`
	Equipment EquipmentData `json:"equipment" yaml:"equipment"`
	Storage   StorageData   `json:"storage,omitempty" yaml:"storage,omitempty"`
	REST      *RESTData     `json:"rest,omitempty" yaml:"rest,omitempty"`
}

// SiteData describes the default forecast request
type SiteData struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude" yaml:"altitude"`
	Timezone  string  `json:"timezone" yaml:"timezone"`
	Tilt      float64 `json:"tilt" yaml:"tilt"`
	Azimuth   float64 `json:"azimuth" yaml:"azimuth"`
	Albedo    float64 `json:"albedo" yaml:"albedo"`
	// Surface names an entry in the albedo table and overrides Albedo when set
	Surface         string `json:"surface,omitempty" yaml:"surface,omitempty"`
	ModuleLibrary   string `json:"module_library" yaml:"module-library"`
	Module          string `json:"module" yaml:"module"`
	InverterLibrary string `json:"inverter_library" yaml:"inverter-library"`
	Inverter        string `json:"inverter" yaml:"inverter"`
	Mounting        string `json:"mounting,omitempty" yaml:"mounting,omitempty"`
	Model           string `json:"model" yaml:"model"`
	DaysAhead       int    `json:"days_ahead" yaml:"days-ahead"`
}

// WeatherData configures the NWP ingestion collaborator
type WeatherData struct {
	Endpoint  string               `json:"endpoint" yaml:"endpoint"`
	Timeout   time.Duration        `json:"timeout" yaml:"timeout"`
	RateLimit float64              `json:"rate_limit" yaml:"rate-limit"` // requests per second
	RateBurst int                  `json:"rate_burst" yaml:"rate-burst"`
	Retry     RetryData            `json:"retry" yaml:"retry"`
	CacheTTL  time.Duration        `json:"cache_ttl" yaml:"cache-ttl"`
	Models    map[string]ModelData `json:"models,omitempty" yaml:"models,omitempty"`
	ClearSky  ClearSkyData         `json:"clearsky" yaml:"clearsky"`
}

// RetryData configures retries of upstream failures
type RetryData struct {
	MaxAttempts     int           `json:"max_attempts" yaml:"max-attempts"`
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial-interval"`
	MaxInterval     time.Duration `json:"max_interval" yaml:"max-interval"`
}

// ModelData overrides the upstream model name and horizon for one NWP model
type ModelData struct {
	Upstream   string        `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	MaxHorizon time.Duration `json:"max_horizon,omitempty" yaml:"max-horizon,omitempty"`
}

// ClearSkyData configures the offline clear-sky weather source. TempAir and
// WindSpeed are pointers so that an explicit 0 °C or calm wind is kept.
type ClearSkyData struct {
	Interval    time.Duration `json:"interval" yaml:"interval"`
	TempAir     *float64      `json:"temp_air,omitempty" yaml:"temp-air,omitempty"`
	WindSpeed   *float64      `json:"wind_speed,omitempty" yaml:"wind-speed,omitempty"`
	CloudCover  float64       `json:"cloud_cover" yaml:"cloud-cover"`
	CloudOffset float64       `json:"cloud_offset" yaml:"cloud-offset"`
}

// AirTemperature returns the configured ambient temperature (°C) or the default
func (c ClearSkyData) AirTemperature() float64 {
	if c.TempAir == nil {
		return DefaultTempAir
	}
	return *c.TempAir
}

// Wind returns the configured wind speed (m/s) or the default
func (c ClearSkyData) Wind() float64 {
	if c.WindSpeed == nil {
		return DefaultWindSpeed
	}
	return *c.WindSpeed
}

// EquipmentData locates the equipment databases
type EquipmentData struct {
	SQLitePath     string    `json:"sqlite_path,omitempty" yaml:"sqlite-path,omitempty"`
	ModuleFiles    []SAMFile `json:"module_files,omitempty" yaml:"module-files,omitempty"`
	InverterFiles  []SAMFile `json:"inverter_files,omitempty" yaml:"inverter-files,omitempty"`
	DisableBuiltin bool      `json:"disable_builtin,omitempty" yaml:"disable-builtin,omitempty"`
}

// SAMFile is a SAM-format CSV library on disk
type SAMFile struct {
	Library string `json:"library" yaml:"library"`
	Path    string `json:"path" yaml:"path"`
}

// StorageData holds the configuration for forecast output backends
type StorageData struct {
	CSVDir      string           `json:"csv_dir,omitempty" yaml:"csv-dir,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

// TimescaleDBData holds the run store connection settings
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection-string"`
	Hypertable       bool   `json:"hypertable,omitempty" yaml:"hypertable,omitempty"` // convert forecast_points to a TimescaleDB hypertable
}

type RESTData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
}
