// Package model defines the data structures used throughout the application.
package model

// Catch is one fishing-log entry.
//
// The json tags are the wire names used by both the HTTP API and the
// remote store's "catches" table, so a row decodes straight into a Catch.
//
// ID is assigned by the store on insert. ID and UserID never change after
// creation; every other field is replaced wholesale by an edit.
type Catch struct {
	ID          int64   `json:"id,omitempty"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"` // ISO calendar date, e.g. "2026-10-19"
	Time        string  `json:"time"` // 24h "HH:MM"
	Location    string  `json:"location"`
	Species     string  `json:"species"`
	LengthIn    float64 `json:"length_in"`  // inches
	WeightLbs   float64 `json:"weight_lbs"` // pounds
	Temperature float64 `json:"temperature"`
	Bait        string  `json:"bait"`
}
