package models

import (
	"time"

	"gorm.io/gorm"
)

//Run is the database model of one generation run
type Run struct {
	gorm.Model
	RunID           string `gorm:"unique"`
	Variant         string
	Seed            int64
	Location        string
	HistoricalStart time.Time
	RealtimeStart   time.Time
	GeneratedAt     time.Time
}

//TableName overrides the default table name of Run
func (Run) TableName() string {
	return "fixture_runs"
}

//SensorSeries is the series of a single sensor within one dataset class of a run
type SensorSeries struct {
	gorm.Model
	RunID        uint   `gorm:"index:series_from_run"`
	Dataset      string `gorm:"index:series_by_sensor"`
	FieldID      string
	SensorID     string `gorm:"index:series_by_sensor"`
	Status       string
	BatteryLevel int
}

//TableName overrides the default table name of SensorSeries
func (SensorSeries) TableName() string {
	return "sensor_series"
}

//Reading stores the values of a series at a point in time (observedAt)
type Reading struct {
	gorm.Model
	SensorSeriesID  uint `gorm:"index:readings_from_series"`
	ObservedAt      time.Time
	SoilMoisture    float64
	EC              float64
	SoilTemperature float64
	PH              float64
}

//TableName overrides the default table name of Reading
func (Reading) TableName() string {
	return "sensor_readings"
}

//WeatherObservation stores one hour of the weather reference series of a run
type WeatherObservation struct {
	gorm.Model
	RunID       uint `gorm:"index:weather_from_run"`
	ObservedAt  time.Time
	AmbientTemp float64
	Humidity    float64
	RainfallMM  float64
}

//ManifestEntry stores a sensor that was given anomalous behaviour in a run
type ManifestEntry struct {
	gorm.Model
	RunID    uint `gorm:"index:manifest_from_run"`
	Dataset  string
	SensorID string
	FieldID  string
	Category string
}
