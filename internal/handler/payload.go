package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sakif/castiq/internal/model"
)

// flexFloat accepts a JSON number or a numeric string. Browser forms send
// every field as a string, so "12.5" must decode the same as 12.5.
// Only finite values are accepted: JSON has no spelling for Inf or NaN, so a
// stored one could never be sent back.
type flexFloat float64

func finite(v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("%v is not a finite number", v)
	}
	return nil
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		if err := finite(v); err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := finite(v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// catchPayload is the request body of log and edit. Fields missing from the
// body decode to their zero values; an "id" in the body is read and ignored.
type catchPayload struct {
	ID          json.RawMessage `json:"id,omitempty"`
	UserID      string          `json:"user_id"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Location    string          `json:"location"`
	Species     string          `json:"species"`
	LengthIn    flexFloat       `json:"length_in"`
	WeightLbs   flexFloat       `json:"weight_lbs"`
	Temperature flexFloat       `json:"temperature"`
	Bait        string          `json:"bait"`
}

func (p catchPayload) toModel() *model.Catch {
	return &model.Catch{
		UserID:      p.UserID,
		Date:        p.Date,
		Time:        p.Time,
		Location:    p.Location,
		Species:     p.Species,
		LengthIn:    float64(p.LengthIn),
		WeightLbs:   float64(p.WeightLbs),
		Temperature: float64(p.Temperature),
		Bait:        p.Bait,
	}
}
