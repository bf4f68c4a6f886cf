package models

import "time"

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	StationID string   `json:"station_id"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// PredictOceanRequest is the body of POST /api/predict-ocean.
type PredictOceanRequest struct {
	Ocean       string   `json:"ocean"`
	Threshold   *float64 `json:"threshold,omitempty"`
	MaxStations *int     `json:"max_stations,omitempty"`
}

// Forecast is the multi-horizon wave-height forecast payload.
type Forecast struct {
	LeadHours  []int     `json:"lead_hours"`
	SwhM       []float64 `json:"swh_m"`
	ThresholdM float64   `json:"threshold_m"`
}

// Alert is the thresholded-alert payload. Exceed, LeadHours, and Swh
// are index-aligned across the forecast horizon.
type Alert struct {
	Exceed      []bool    `json:"exceed"`
	LeadHours   []int     `json:"lead_hours"`
	Swh         []float64 `json:"swh"`
	Alerted     bool      `json:"alerted"`
	MaxValueM   float64   `json:"max_value_m"`
	MaxLeadHour int       `json:"max_lead_hour"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PredictResponse is the body of a successful POST /api/predict.
type PredictResponse struct {
	StationID string   `json:"station_id"`
	Forecast  Forecast `json:"forecast"`
	Alert     Alert    `json:"alert"`
}

// StationPrediction is one station's entry in a region prediction.
type StationPrediction struct {
	StationID string   `json:"station_id"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Forecast  Forecast `json:"forecast"`
	Alert     Alert    `json:"alert"`
}

// StationFailure is one station's failure entry in a region prediction.
type StationFailure struct {
	StationID string `json:"station_id"`
	Reason    string `json:"reason"`
}

// PredictOceanResponse is the body of a successful POST /api/predict-ocean.
type PredictOceanResponse struct {
	RegionID      string              `json:"region_id"`
	RegionName    string              `json:"region_name"`
	ThresholdM    float64             `json:"threshold_m"`
	Predictions   []StationPrediction `json:"predictions"`
	Failures      []StationFailure    `json:"failures"`
	TotalStations int                 `json:"total_stations"`
	AlertCount    int                 `json:"alert_count"`
}
