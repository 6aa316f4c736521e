package car

import (
	"strings"
	"time"
)

// FuelType is the energy source of a car.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

// IsValid returns true if the fuel type is recognized.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric:
		return true
	}
	return false
}

// Transmission is the gearbox type of a car.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// IsValid returns true if the transmission is recognized.
func (t Transmission) IsValid() bool {
	return t == TransmissionManual || t == TransmissionAutomatic
}

// Insurance is the optional cover attached to a car.
type Insurance struct {
	Provider     string     `json:"provider,omitempty"`
	PolicyNumber string     `json:"policy_number,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Specification is an immutable value object describing a rentable vehicle.
type Specification struct {
	Name               string       `json:"name"`
	Model              string       `json:"model"`
	FuelType           FuelType     `json:"fuel_type"`
	Transmission       Transmission `json:"transmission"`
	Seats              int          `json:"seats"`
	Color              string       `json:"color"`
	RegistrationNumber string       `json:"registration_number"`
	Branch             string       `json:"branch"`
	Description        string       `json:"description"`
	Insurance          Insurance    `json:"insurance"`
}

// Normalized trims free text and upper-cases the registration number.
func (s Specification) Normalized() Specification {
	s.Name = strings.TrimSpace(s.Name)
	s.Model = strings.TrimSpace(s.Model)
	s.FuelType = FuelType(strings.ToLower(strings.TrimSpace(string(s.FuelType))))
	s.Transmission = Transmission(strings.ToLower(strings.TrimSpace(string(s.Transmission))))
	s.Color = strings.TrimSpace(s.Color)
	s.RegistrationNumber = strings.ToUpper(strings.TrimSpace(s.RegistrationNumber))
	s.Branch = strings.TrimSpace(s.Branch)
	s.Description = strings.TrimSpace(s.Description)
	return s
}
