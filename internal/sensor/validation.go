package sensor

import (
	"fmt"
	"strings"
)

func validate(s *Sensor) error {
	if !IsValidType(s.Type) {
		return fmt.Errorf("%w: %q (want temperature, humidity, co2 or noise)", ErrInvalidType, s.Type)
	}
	if strings.TrimSpace(s.Unit) == "" {
		return ErrUnitRequired
	}
	return nil
}
