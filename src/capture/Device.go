package capture

import (
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// DeviceBackends are tried in order when opening a local capture device.
var DeviceBackends = []Backend{
	{Name: "v4l2", API: gocv.VideoCaptureV4L2},
	{Name: "any", API: gocv.VideoCaptureAny},
}

// DeviceIndex recognises the locator of a local capture device, either a
// bare index ("0") or a video4linux node ("/dev/video0").
func DeviceIndex(locator string) (int, bool) {
	locator = strings.TrimSpace(locator)
	locator = strings.TrimPrefix(locator, "/dev/video")
	index, err := strconv.Atoi(locator)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// NewDeviceSource opens USB and other local cameras through OpenCV. The
// ffmpeg bridge only handles network streams.
func NewDeviceSource() *VideoCaptureSource {
	return NewVideoCaptureSource(DeviceBackends...)
}
