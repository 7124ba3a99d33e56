package database

import (
	"time"

	"github.com/jackc/pgtype"
)

// ForecastRun is one completed pipeline run
type ForecastRun struct {
	ID          string       `gorm:"primaryKey;column:id;type:uuid"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null;index"`
	Latitude    float64      `gorm:"column:latitude;not null"`
	Longitude   float64      `gorm:"column:longitude;not null"`
	Altitude    float64      `gorm:"column:altitude"`
	Timezone    string       `gorm:"column:timezone"`
	Model       string       `gorm:"column:model;not null"`
	Source      string       `gorm:"column:source"`
	Module      string       `gorm:"column:module;not null"`
	Inverter    string       `gorm:"column:inverter;not null"`
	WindowStart time.Time    `gorm:"column:window_start;not null"`
	WindowEnd   time.Time    `gorm:"column:window_end;not null"`
	Rows        int          `gorm:"column:row_count"`
	DCEnergy    float64      `gorm:"column:dc_energy_wh"`
	ACEnergy    float64      `gorm:"column:ac_energy_wh"`
	PeakAC      float64      `gorm:"column:peak_ac_w"`
	Request     pgtype.JSONB `gorm:"column:request;type:jsonb;not null"`
	Summary     pgtype.JSONB `gorm:"column:summary;type:jsonb;not null"`
}

// TableName specifies the table name for ForecastRun
func (ForecastRun) TableName() string {
	return "forecast_runs"
}

// ForecastPoint is one timestep of a run. The time column is the hypertable
// partition key, so it is part of the primary key.
type ForecastPoint struct {
	RunID     string    `gorm:"primaryKey;column:run_id;type:uuid"`
	Time      time.Time `gorm:"primaryKey;column:time"`
	GHI       float64   `gorm:"column:ghi"`
	DNI       float64   `gorm:"column:dni"`
	DHI       float64   `gorm:"column:dhi"`
	TempAir   float64   `gorm:"column:temp_air"`
	WindSpeed float64   `gorm:"column:wind_speed"`
	POAGlobal float64   `gorm:"column:poa_global"`
	TempCell  float64   `gorm:"column:temp_cell"`
	PDC       float64   `gorm:"column:p_dc"`
	PAC       float64   `gorm:"column:p_ac"`
	Clipped   bool      `gorm:"column:clipped"`
}

// TableName specifies the table name for ForecastPoint
func (ForecastPoint) TableName() string {
	return "forecast_points"
}
