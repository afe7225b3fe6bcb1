package hermes

import "time"

type ScenarioEvaluatedEvent struct {
	ScenarioID       string    `json:"scenario_id"`
	Geography        string    `json:"geography"`
	Level            string    `json:"level"`
	TaxRate          float64   `json:"tax_rate"`
	Benefits         []string  `json:"benefits,omitempty"`
	Taxes            []string  `json:"taxes,omitempty"`
	Include          []string  `json:"include,omitempty"`
	UBI              float64   `json:"ubi"`
	Revenue          float64   `json:"revenue"`
	PercentBetterOff float64   `json:"percent_better_off"`
	PovertyRateDelta *float64  `json:"poverty_rate_change"`
	DurationMs       int64     `json:"duration_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

type ScenarioRejectedEvent struct {
	ScenarioID string    `json:"scenario_id"`
	Geography  string    `json:"geography"`
	Level      string    `json:"level"`
	Reason     string    `json:"reason"` // config | degenerate | internal
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
}

type SnapshotReloadedEvent struct {
	Persons        int       `json:"persons"`
	Households     int       `json:"households"`
	Geographies    int       `json:"geographies"`
	BaselineSource string    `json:"baseline_source"` // snapshot | computed
	Timestamp      time.Time `json:"timestamp"`
}
