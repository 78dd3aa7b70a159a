// Package capture opens network cameras and turns them into a stream of
// decoded frames.
package capture

import (
	"strings"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// ErrSourceUnavailable is returned when a camera cannot be opened or stops
// delivering frames.
var ErrSourceUnavailable = errors.New("frame source unavailable")

// FrameSource is a camera that produces decoded BGR frames. Release may be
// called from another goroutine than the one calling Read.
type FrameSource interface {
	// Open connects to the camera behind locator (usually an RTSP url).
	Open(locator string) error

	// Read returns the next frame, or false when no frame is available
	// within a short window.
	Read() (*models.Frame, bool)

	// IsOpen reports whether the source is connected.
	IsOpen() bool

	// Release disconnects and frees the underlying resources.
	Release()
}

// NewSource builds the frame source of a camera: every configured url is
// tried with every decoding strategy, first success wins. A local capture
// device is only opened through OpenCV.
func NewSource(camera *models.CameraConfig, settings models.MotionSettings) FrameSource {
	var strategies []Strategy
	opencv := Strategy{
		Name: "opencv",
		New: func() FrameSource {
			return NewVideoCaptureSource(DefaultBackends...)
		},
	}
	ffmpeg := Strategy{
		Name: "ffmpeg",
		New: func() FrameSource {
			return NewFFmpegSource(settings.Width, settings.Height, time.Duration(settings.ReadTimeout)*time.Millisecond)
		},
	}

	if _, device := DeviceIndex(camera.URL); device {
		strategies = []Strategy{{Name: "device", New: func() FrameSource { return NewDeviceSource() }}}
		return NewFallbackSource(nil, strategies...)
	}

	switch strings.ToLower(camera.Source) {
	case "ffmpeg":
		strategies = []Strategy{ffmpeg}
	case "opencv":
		strategies = []Strategy{opencv}
	default:
		strategies = []Strategy{opencv, ffmpeg}
	}

	var fallbacks []string
	locators := camera.Locators()
	if len(locators) > 1 {
		fallbacks = locators[1:]
	}
	return NewFallbackSource(fallbacks, strategies...)
}
