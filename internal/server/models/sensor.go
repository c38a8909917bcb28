package models

import "time"

// SensorReading is one air-quality sample. Readings are written by the
// sensor pipeline, never by this server.
type SensorReading struct {
	PM1       float64
	PM25      float64
	PM10      float64
	NO2       float64
	Timestamp time.Time
}
