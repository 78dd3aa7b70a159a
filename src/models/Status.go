package models

import "time"

// DetectorState is the lifecycle state of a motion detector.
type DetectorState int32

const (
	StateIdle DetectorState = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s DetectorState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// DetectorStatus is the snapshot returned to consumers of a detector.
type DetectorStatus struct {
	CameraId       string     `json:"camera_id"`
	CameraName     string     `json:"camera_name"`
	Active         bool       `json:"active"`
	State          string     `json:"state"`
	MotionDetected bool       `json:"motion_detected"`
	LastMotionTime *time.Time `json:"last_motion_time"`
	Sequence       uint64     `json:"sequence"`
	Boxes          int        `json:"boxes"`
	SourceOpen     bool       `json:"source_open"`
}

// MotionEvent is emitted by a detector when motion starts.
type MotionEvent struct {
	CameraId  string
	Timestamp time.Time
	Boxes     []MotionBox
	Frame     *Frame
}

// CameraStats is used for the periodic stats messages.
type CameraStats struct {
	Frames uint64
	Width  int
	Height int
}
