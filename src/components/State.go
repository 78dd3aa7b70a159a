package components

import (
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
)

// DetectorState is the state a detector shares with its consumers. All
// fields are guarded by one mutex that is only held while copying fields,
// never while analysing a frame.
type DetectorState struct {
	mutex sync.RWMutex

	session        uint64
	active         bool
	motionDetected bool
	lastMotionTime *time.Time
	sequence       uint64
	boxes          int
	current        *models.Frame
	processed      *models.Frame
	// latest annotated frame of the session, it outlives the cycle that
	// produced it.
	annotated *models.Frame
}

// StateSnapshot is a consistent copy of a DetectorState.
type StateSnapshot struct {
	Active         bool
	MotionDetected bool
	LastMotionTime *time.Time
	// Sequence of the frame the motion flag belongs to.
	Sequence  uint64
	Boxes     int
	Current   *models.Frame
	Processed *models.Frame
}

// begin starts a new session, writes of older sessions are ignored from now
// on.
func (s *DetectorState) begin(session uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.session = session
	s.active = true
	s.motionDetected = false
	s.boxes = 0
	s.current = nil
	s.processed = nil
	s.annotated = nil
}

func (s *DetectorState) end(session uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.session == session {
		s.active = false
		s.motionDetected = false
		s.boxes = 0
	}
}

// storeRaw publishes a new raw frame. The annotated frame of the previous
// cycle is dropped, so no reader pairs it with the new raw frame.
func (s *DetectorState) storeRaw(session uint64, frame *models.Frame) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.session != session || !s.active {
		return false
	}
	s.current = frame
	s.processed = nil
	return true
}

// storeCycle publishes the outcome of a cycle as one unit and reports
// whether motion started with this cycle.
func (s *DetectorState) storeCycle(session uint64, raw *models.Frame, processed *models.Frame, motion bool, boxes int, now time.Time) (onset bool, stored bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.session != session || !s.active {
		return false, false
	}
	onset = motion && !s.motionDetected
	s.current = raw
	s.processed = processed
	if processed != nil {
		s.annotated = processed
	}
	s.motionDetected = motion
	s.sequence = raw.Sequence
	s.boxes = boxes
	if motion {
		t := now
		s.lastMotionTime = &t
	}
	return onset, true
}

// Snapshot returns copies of all fields, frames included.
func (s *DetectorState) Snapshot() StateSnapshot {
	snapshot := s.read()

	// Published frames are never written again, so they can be copied
	// outside the lock.
	snapshot.Current = snapshot.Current.Clone()
	snapshot.Processed = snapshot.Processed.Clone()
	return snapshot
}

// Summary returns the scalar fields only.
func (s *DetectorState) Summary() StateSnapshot {
	snapshot := s.read()
	snapshot.Current = nil
	snapshot.Processed = nil
	return snapshot
}

func (s *DetectorState) read() StateSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snapshot := StateSnapshot{
		Active:         s.active,
		MotionDetected: s.motionDetected,
		Sequence:       s.sequence,
		Boxes:          s.boxes,
		Current:        s.current,
		Processed:      s.processed,
	}
	if s.lastMotionTime != nil {
		t := *s.lastMotionTime
		snapshot.LastMotionTime = &t
	}
	return snapshot
}

// Frame returns a copy of the latest annotated frame, or of the raw frame
// when no cycle completed yet, or nil. While a cycle runs the annotated
// frame of the previous cycle is returned.
func (s *DetectorState) Frame() *models.Frame {
	s.mutex.RLock()
	frame := s.processed
	if frame == nil {
		frame = s.annotated
	}
	if frame == nil {
		frame = s.current
	}
	s.mutex.RUnlock()
	return frame.Clone()
}
