package sensor

import "time"

// Type is the physical quantity a sensor measures.
type Type string

const (
	TypeTemperature Type = "temperature"
	TypeHumidity    Type = "humidity"
	TypeCO2         Type = "co2"
	TypeNoise       Type = "noise"
)

// validTypes is a pre-computed set for O(1) type validation.
var validTypes = map[Type]struct{}{
	TypeTemperature: {},
	TypeHumidity:    {},
	TypeCO2:         {},
	TypeNoise:       {},
}

// IsValidType reports whether t is a supported sensor type.
func IsValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

// Sensor is a measuring element that produces readings.
type Sensor struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Unit      string    `json:"unit"`
	Model     string    `json:"model,omitempty"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput is the payload for creating a sensor. IsActive defaults to true.
type CreateInput struct {
	Type     Type   `json:"type"`
	Unit     string `json:"unit"`
	Model    string `json:"model,omitempty"`
	Location string `json:"location,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Type     *Type   `json:"type,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Model    *string `json:"model,omitempty"`
	Location *string `json:"location,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Type == nil && p.Unit == nil && p.Model == nil && p.Location == nil && p.IsActive == nil
}
