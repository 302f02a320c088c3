// Package presentation derives everything a renderer needs from a lookup
// State. Derivation is pure and cheap enough to run on every render.
package presentation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vzahanych/ph-weather/internal/lookup"
	"github.com/vzahanych/ph-weather/internal/service"
)

const PlaceholderMessage = "Search a city in the Philippines to know the weather."

type Icon string

const (
	IconPlaceholder Icon = "placeholder"
	IconSun         Icon = "sun"
	IconRain        Icon = "rain"
)

type Background string

const (
	BackgroundDefault Background = "default"
	BackgroundSunny   Background = "sunny"
	BackgroundRainy   Background = "rainy"
)

type ObservationView struct {
	Name        string `json:"name"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    string `json:"humidity"`
	WindSpeed   string `json:"wind_speed"`
}

type View struct {
	Icon        Icon             `json:"icon"`
	Background  Background       `json:"background"`
	Placeholder string           `json:"placeholder,omitempty"`
	Error       string           `json:"error,omitempty"`
	Observation *ObservationView `json:"observation,omitempty"`
}

func Derive(state lookup.State) View {
	v := View{
		Icon:       IconFor(state.Observation),
		Background: BackgroundFor(state.Observation),
		Error:      state.Error,
	}
	if state.Observation == nil && state.Error == "" {
		v.Placeholder = PlaceholderMessage
	}
	if state.Observation != nil {
		v.Observation = Format(state.Observation)
	}
	return v
}

func IconFor(obs *service.Observation) Icon {
	if obs == nil {
		return IconPlaceholder
	}
	condition := strings.ToLower(obs.Condition)
	if strings.Contains(condition, "rain") || strings.Contains(condition, "shower") {
		return IconRain
	}
	return IconSun
}

func BackgroundFor(obs *service.Observation) Background {
	if obs == nil {
		return BackgroundDefault
	}
	condition := strings.ToLower(obs.Condition)
	switch {
	case strings.Contains(condition, "rain"),
		strings.Contains(condition, "shower"),
		strings.Contains(condition, "drizzle"):
		return BackgroundRainy
	case strings.Contains(condition, "sun"),
		strings.Contains(condition, "clear"):
		return BackgroundSunny
	default:
		return BackgroundDefault
	}
}

func Format(obs *service.Observation) *ObservationView {
	return &ObservationView{
		Name:        obs.Name,
		Temperature: formatNumber(obs.Temp) + " °C",
		Condition:   obs.Condition,
		Humidity:    formatNumber(obs.Humidity) + " %",
		WindSpeed:   fmt.Sprintf("%.2f m/s", obs.Wind),
	}
}

// formatNumber prints the shortest decimal that round-trips, so 30 is "30"
// and 30.25 is "30.25".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
