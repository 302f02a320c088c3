package service

import "context"

// PlaceResolver turns a free-text city name into a location identifier
// within the target country.
type PlaceResolver interface {
	Resolve(ctx context.Context, cityName string) (string, error)
}

// WeatherFetcher loads current conditions for a resolved location. The
// returned observation carries displayName, not the provider's place name.
type WeatherFetcher interface {
	Fetch(ctx context.Context, placeID, displayName string) (*Observation, error)
}

// Observation is the normalized, display-ready result of one search.
type Observation struct {
	Name      string  `json:"name"`
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
	Humidity  float64 `json:"humidity"`
	Wind      float64 `json:"wind"`
}

// CandidatePlace is one entry of a place-search response.
type CandidatePlace struct {
	Name     string `json:"name"`
	PlaceID  string `json:"place_id"`
	AdmArea1 string `json:"adm_area1"`
	AdmArea2 string `json:"adm_area2"`
	Country  string `json:"country"`
	Lat      string `json:"lat"`
	Lon      string `json:"lon"`
	Timezone string `json:"timezone"`
	Type     string `json:"type"`
}
