package models

import "time"

// ProjectInfo represents metadata about an uploaded project file.
type ProjectInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
	ProjectID   string    `json:"projectId,omitempty"`
	SignalCount int       `json:"signalCount"`
	Format      string    `json:"format,omitempty"` // "json" or "yaml"
}
