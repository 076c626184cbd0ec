package testutil

import "github.com/indusense/testgen/internal/models"

// SingleSignalProject is the minimal P1 project with one temperature signal
// and no requirements.
func SingleSignalProject() *models.Project {
	return &models.Project{
		ID:     "P1",
		System: "Test Chamber",
		Signals: []models.Signal{
			{ID: "S1", Type: models.SignalTypeTemperature, Range: "-10 to 50 C"},
		},
		Metadata: map[string]any{},
	}
}

// ProjectWithSignals builds a valid project with one requirement and the
// given signal IDs.
func ProjectWithSignals(ids ...string) *models.Project {
	p := &models.Project{
		ID:          "P-TEST",
		System:      "Test Rig",
		Environment: "Lab",
		Requirements: []models.Requirement{
			{ID: "R1", Text: "Readings logged every second", Priority: models.PriorityMedium},
		},
		Metadata: map[string]any{},
	}
	for _, id := range ids {
		p.Signals = append(p.Signals, models.Signal{ID: id, Type: models.SignalTypePressure, Range: "0-10 bar"})
	}
	return p
}
