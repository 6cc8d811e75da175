package models

import "encoding/json"

// TravelData is the last generated itinerary kept in a browser session.
type TravelData struct {
	Destination string        `json:"destination"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Itinerary   string        `json:"itinerary"`
	Weather     WeatherRecord `json:"weather"`
}

// WeatherRecord holds current conditions for a location, or only Error when
// the lookup failed.
type WeatherRecord struct {
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Icon        string  `json:"icon"`
	Error       string  `json:"error,omitempty"`
}

// WeatherError builds an error-only record.
func WeatherError(msg string) WeatherRecord {
	return WeatherRecord{Error: msg}
}

// Failed reports whether the record carries an error instead of conditions.
func (w WeatherRecord) Failed() bool {
	return w.Error != ""
}

// MarshalJSON emits {"error": ...} alone for failed lookups.
func (w WeatherRecord) MarshalJSON() ([]byte, error) {
	if w.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{w.Error})
	}
	type plain WeatherRecord
	return json.Marshal(plain(w))
}
