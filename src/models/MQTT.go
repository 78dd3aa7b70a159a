package models

import (
	"encoding/json"

	"github.com/gofrs/uuid"
)

// EventMessage is published on camera/<id>/events when motion starts.
// The layout matches the messages the desktop viewers already consume.
type EventMessage struct {
	Mid          string      `json:"mid"`
	Type         string      `json:"type"`
	CameraId     string      `json:"camera_id"`
	CameraName   string      `json:"camera_name"`
	CameraType   string      `json:"camera_type"`
	Timestamp    string      `json:"timestamp"`
	Boxes        []MotionBox `json:"boxes"`
	LargestArea  float64     `json:"largest_area"`
	SnapshotPath string      `json:"snapshot_path,omitempty"`
	Viewed       bool        `json:"viewed"`
}

// StatusMessage is published on <prefix>/status/<id>.
type StatusMessage struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// StatsMessage is published on <prefix>/stats/<id>.
type StatsMessage struct {
	FPS        int    `json:"fps"`
	Resolution string `json:"resolution"`
	Timestamp  int64  `json:"timestamp"`
}

// PackageEventMessage assigns a unique message id and marshals the event.
func PackageEventMessage(msg EventMessage) ([]byte, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	msg.Mid = u.String()
	if msg.Type == "" {
		msg.Type = "motion_detected"
	}
	if msg.Boxes == nil {
		msg.Boxes = []MotionBox{}
	}
	return json.Marshal(msg)
}
