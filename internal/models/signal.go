// Package models contains domain types for the test procedure generator.
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySignalID is returned when a signal is constructed without an ID.
	ErrEmptySignalID = errors.New("signal ID cannot be empty")
	// ErrUnrecognizedSignalType is returned by ParseSignalType for unknown names.
	ErrUnrecognizedSignalType = errors.New("unrecognized signal type")
)

// SignalType is the measured physical quantity of a signal.
type SignalType string

const (
	SignalTypeTemperature     SignalType = "Temperature"
	SignalTypeHumidity        SignalType = "Humidity"
	SignalTypePressure        SignalType = "Pressure"
	SignalTypeFlow            SignalType = "Flow"
	SignalTypeLevel           SignalType = "Level"
	SignalTypePH              SignalType = "pH"
	SignalTypeConductivity    SignalType = "Conductivity"
	SignalTypeDissolvedOxygen SignalType = "Dissolved Oxygen"
)

// signalTypeNames maps the upper-case enum names used in project files to types.
var signalTypeNames = map[string]SignalType{
	"TEMPERATURE":      SignalTypeTemperature,
	"HUMIDITY":         SignalTypeHumidity,
	"PRESSURE":         SignalTypePressure,
	"FLOW":             SignalTypeFlow,
	"LEVEL":            SignalTypeLevel,
	"PH":               SignalTypePH,
	"CONDUCTIVITY":     SignalTypeConductivity,
	"DISSOLVED_OXYGEN": SignalTypeDissolvedOxygen,
}

// AllSignalTypes returns every supported signal type in declaration order.
func AllSignalTypes() []SignalType {
	return []SignalType{
		SignalTypeTemperature,
		SignalTypeHumidity,
		SignalTypePressure,
		SignalTypeFlow,
		SignalTypeLevel,
		SignalTypePH,
		SignalTypeConductivity,
		SignalTypeDissolvedOxygen,
	}
}

// ParseSignalType maps an enum name ("DISSOLVED_OXYGEN") or a label
// ("Dissolved Oxygen") to a SignalType. Matching is case-insensitive.
// Unknown values return ErrUnrecognizedSignalType; callers decide whether to
// default or reject.
func ParseSignalType(raw string) (SignalType, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if t, ok := signalTypeNames[key]; ok {
		return t, nil
	}
	if t, ok := signalTypeNames[strings.ReplaceAll(key, " ", "_")]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedSignalType, raw)
}

// String returns the display label.
func (t SignalType) String() string {
	return string(t)
}

// Signal represents a measurement signal in the monitored system.
// Optional fields are empty when absent.
type Signal struct {
	ID          string     `json:"id" yaml:"id"`
	Type        SignalType `json:"type" yaml:"type"`
	Range       string     `json:"range" yaml:"range"`
	Unit        string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	Accuracy    string     `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewSignal creates a Signal, rejecting an empty ID.
func NewSignal(id string, typ SignalType, rng string) (Signal, error) {
	if id == "" {
		return Signal{}, ErrEmptySignalID
	}
	return Signal{ID: id, Type: typ, Range: rng}, nil
}

// WithDetails returns a copy of the signal with the optional fields set.
func (s Signal) WithDetails(unit, accuracy, description string) Signal {
	s.Unit = unit
	s.Accuracy = accuracy
	s.Description = description
	return s
}
