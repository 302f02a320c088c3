package presentation

import (
	"fmt"
	"io"
)

// WriteText renders v as plain text for terminal surfaces.
func WriteText(w io.Writer, v View) error {
	if _, err := fmt.Fprintf(w, "[%s] background=%s\n", v.Icon, v.Background); err != nil {
		return err
	}
	if v.Placeholder != "" {
		if _, err := fmt.Fprintln(w, v.Placeholder); err != nil {
			return err
		}
	}
	if v.Error != "" {
		if _, err := fmt.Fprintf(w, "Error: %s\n", v.Error); err != nil {
			return err
		}
	}
	if o := v.Observation; o != nil {
		_, err := fmt.Fprintf(w, "%s\n  Temperature: %s\n  Condition: %s\n  Humidity: %s\n  Wind Speed: %s\n",
			o.Name, o.Temperature, o.Condition, o.Humidity, o.WindSpeed)
		return err
	}
	return nil
}
