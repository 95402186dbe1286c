package models

import (
	"fmt"
	"time"
)

//TimestampLayout is the ISO-8601 UTC second precision layout used by every emitted document
const TimestampLayout = "2006-01-02T15:04:05Z"

//Status is the lifecycle status of a sensor
type Status string

const (
	StatusActive  Status = "active"
	StatusOffline Status = "offline"
)

//Dataset identifies a dataset class
type Dataset string

const (
	Historical Dataset = "historical"
	Realtime   Dataset = "realtime"
)

//Values holds the four soil quantities of a single reading
type Values struct {
	SoilMoisture    float64 `json:"soil_moisture"`
	EC              float64 `json:"ec"`
	SoilTemperature float64 `json:"soil_temperature"`
	PH              float64 `json:"ph"`
}

//Reading is one hourly sample reported by a sensor
type Reading struct {
	Timestamp string `json:"timestamp"`
	Values
}

//Time parses the reading timestamp
func (r Reading) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

//Sensor is a soil sensor together with the readings it produced during one window
type Sensor struct {
	SensorID     string    `json:"sensor_id"`
	Status       Status    `json:"status"`
	BatteryLevel int       `json:"battery_level"`
	Readings     []Reading `json:"readings"`
}

//FieldDocument is the per zone document of a dataset class
type FieldDocument struct {
	FieldID string   `json:"field_id"`
	Sensors []Sensor `json:"sensors"`

	Zone    int     `json:"-"`
	Dataset Dataset `json:"-"`
}

//WeatherForecast is one hourly ambient sample
type WeatherForecast struct {
	Timestamp   string  `json:"timestamp"`
	AmbientTemp float64 `json:"ambient_temp"`
	Humidity    float64 `json:"humidity"`
	RainfallMM  float64 `json:"rainfall_mm"`
}

//WeatherDocument is the weather reference series for the real-time window
type WeatherDocument struct {
	Location string            `json:"location"`
	Forecast []WeatherForecast `json:"forecast"`
}

//ManifestEntry names a sensor that was deliberately given anomalous behaviour
type ManifestEntry struct {
	SensorID string  `json:"sensor_id"`
	FieldID  string  `json:"field_id"`
	Dataset  Dataset `json:"dataset"`
	Category string  `json:"category"`
}

//Bundle is everything produced by a single generation run
type Bundle struct {
	RunID           string
	Variant         string
	Seed            int64
	HistoricalStart time.Time
	RealtimeStart   time.Time
	GeneratedAt     time.Time

	Historical []FieldDocument
	Realtime   []FieldDocument
	Weather    WeatherDocument
	Manifest   []ManifestEntry
}

//Fields returns the documents of the requested dataset class
func (b *Bundle) Fields(dataset Dataset) []FieldDocument {
	switch dataset {
	case Historical:
		return b.Historical
	case Realtime:
		return b.Realtime
	}
	return nil
}

//Field looks up a single field document by its id
func (b *Bundle) Field(dataset Dataset, fieldID string) (*FieldDocument, bool) {
	docs := b.Fields(dataset)
	for i := range docs {
		if docs[i].FieldID == fieldID {
			return &docs[i], true
		}
	}
	return nil, false
}

//FieldID formats the identifier of a zone
func FieldID(zone int) string {
	return fmt.Sprintf("zone_%d", zone)
}

//SensorID formats the globally unique identifier of the sensor at offset (1 based) within a zone
func SensorID(zone, sensorsPerZone, offset int) string {
	return fmt.Sprintf("s_%02d", (zone-1)*sensorsPerZone+offset)
}
