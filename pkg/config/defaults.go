package config

import "time"

const (
	DefaultEndpoint    = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout     = 30 * time.Second
	DefaultRateLimit   = 2.0
	DefaultRateBurst   = 1
	DefaultCacheTTL    = 15 * time.Minute
	DefaultModel       = "GFS"
	DefaultDaysAhead   = 3
	DefaultMounting    = "open_rack_glass_polymer"
	DefaultRESTPort    = 8080
	DefaultListenAddr  = "0.0.0.0"
	DefaultCSVDir      = "."
	DefaultClearSkyDT  = time.Hour
	DefaultTempAir     = 20.0
	DefaultWindSpeed   = 1.0
	DefaultCloudOffset = 0.35
)

// ApplyDefaults fills every unset field with its default value
func (c *ConfigData) ApplyDefaults() {
	s := &c.Site
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.DaysAhead == 0 {
		s.DaysAhead = DefaultDaysAhead
	}
	if s.Mounting == "" {
		s.Mounting = DefaultMounting
	}
	if s.ModuleLibrary == "" {
		s.ModuleLibrary = "SandiaMod"
	}
	if s.InverterLibrary == "" {
		s.InverterLibrary = "sandiainverter"
	}

	w := &c.Weather
	if w.Endpoint == "" {
		w.Endpoint = DefaultEndpoint
	}
	if w.Timeout == 0 {
		w.Timeout = DefaultTimeout
	}
	if w.RateLimit == 0 {
		w.RateLimit = DefaultRateLimit
	}
	if w.RateBurst == 0 {
		w.RateBurst = DefaultRateBurst
	}
	if w.CacheTTL == 0 {
		w.CacheTTL = DefaultCacheTTL
	}
	if w.Retry.MaxAttempts == 0 {
		w.Retry.MaxAttempts = 3
	}
	if w.Retry.InitialInterval == 0 {
		w.Retry.InitialInterval = 500 * time.Millisecond
	}
	if w.Retry.MaxInterval == 0 {
		w.Retry.MaxInterval = 5 * time.Second
	}
	if w.ClearSky.Interval == 0 {
		w.ClearSky.Interval = DefaultClearSkyDT
	}
	if w.ClearSky.TempAir == nil {
		t := DefaultTempAir
		w.ClearSky.TempAir = &t
	}
	if w.ClearSky.WindSpeed == nil {
		ws := DefaultWindSpeed
		w.ClearSky.WindSpeed = &ws
	}
	if w.ClearSky.CloudOffset == 0 {
		w.ClearSky.CloudOffset = DefaultCloudOffset
	}

	if c.Storage.CSVDir == "" {
		c.Storage.CSVDir = DefaultCSVDir
	}

	if c.REST != nil {
		if c.REST.Port == 0 {
			c.REST.Port = DefaultRESTPort
		}
		if c.REST.ListenAddr == "" {
			c.REST.ListenAddr = DefaultListenAddr
		}
	}
}
