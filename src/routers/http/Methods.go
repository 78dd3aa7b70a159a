package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/components"
	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	ReasonNotActive    = "Motion detection not active"
	ReasonWaiting      = "Waiting for first frame"
	ReasonEncodeFailed = "Frame could not be encoded"
)

// Controller is the part of the agent exposed over HTTP.
type Controller interface {
	Cameras() []models.CameraInfo
	Camera(id string) (*models.CameraConfig, error)
	Start(id string) error
	Stop(id string) error
	Status(id string) (models.DetectorStatus, error)
	StatusAll() map[string]models.DetectorStatus
	ProcessedFrame(id string) (*models.Frame, error)
	Active() int
}

// ProbeTimeout bounds the RTSP DESCRIBE of the probe endpoint.
var ProbeTimeout = 10 * time.Second

func writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, components.ErrCameraNotFound):
		code = http.StatusNotFound
	case errors.Is(err, capture.ErrSourceUnavailable):
		code = http.StatusBadGateway
	}
	c.JSON(code, models.APIResponse{
		Message: err.Error(),
	})
}

// Login godoc
// @Router /api/login [post]
// @ID login
// @Tags authentication
// @Summary Get Authorization token.
// @Description Get Authorization token.
// @Param credentials body models.Authentication true "Credentials"
// @Success 200 {object} models.Authorization
func Login() {}

// GetCameras godoc
// @Router /api/cameras [get]
// @ID cameras
// @Tags cameras
// @Summary List the configured cameras.
// @Description List the configured cameras, urls are not included.
// @Success 200 {object} models.APIResponse
func GetCameras(c *gin.Context, controller Controller) {
	cameras := controller.Cameras()
	if cameras == nil {
		cameras = []models.CameraInfo{}
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Data: cameras,
	})
}

// GetStatuses godoc
// @Router /api/status [get]
// @ID status
// @Tags cameras
// @Summary Status of every camera.
// @Success 200 {object} models.APIResponse
func GetStatuses(c *gin.Context, controller Controller) {
	c.JSON(http.StatusOK, models.APIResponse{
		Data: controller.StatusAll(),
	})
}

// GetStatus godoc
// @Router /api/cameras/{id}/status [get]
// @ID camera-status
// @Tags cameras
// @Param id path string true "Camera"
// @Summary Status of a camera.
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
func GetStatus(c *gin.Context, controller Controller) {
	status, err := controller.Status(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Data: status,
	})
}

// StartCamera godoc
// @Router /api/cameras/{id}/start [post]
// @ID camera-start
// @Tags cameras
// @Security Bearer
// @Param id path string true "Camera"
// @Summary Start motion detection.
// @Description Opens the camera and starts motion detection, returns once the camera is open.
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 502 {object} models.APIResponse
func StartCamera(c *gin.Context, controller Controller) {
	id := c.Param("id")
	if err := controller.Start(id); err != nil {
		writeError(c, err)
		return
	}
	status, _ := controller.Status(id)
	c.JSON(http.StatusOK, models.APIResponse{
		Data:    status,
		Message: "Motion detection started for " + id,
	})
}

// StopCamera godoc
// @Router /api/cameras/{id}/stop [post]
// @ID camera-stop
// @Tags cameras
// @Security Bearer
// @Param id path string true "Camera"
// @Summary Stop motion detection.
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
func StopCamera(c *gin.Context, controller Controller) {
	id := c.Param("id")
	if err := controller.Stop(id); err != nil {
		writeError(c, err)
		return
	}
	status, _ := controller.Status(id)
	c.JSON(http.StatusOK, models.APIResponse{
		Data:    status,
		Message: "Motion detection stopped for " + id,
	})
}

func frameSettings(configuration *models.Configuration) (width int, height int, quality int) {
	defaults := models.DefaultMotionSettings()
	motion := configuration.Config.Motion
	width, height, quality = motion.Width, motion.Height, motion.JPEGQuality
	if width <= 0 || height <= 0 {
		width, height = defaults.Width, defaults.Height
	}
	if quality <= 0 || quality > 100 {
		quality = computervision.DefaultJPEGQuality
	}
	return
}

func writeJPEG(c *gin.Context, code int, jpeg []byte) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(code, "image/jpeg", jpeg)
}

func writePlaceholder(c *gin.Context, width int, height int, reason string) {
	jpeg, err := computervision.Placeholder(width, height, reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Message: reason,
		})
		return
	}
	writeJPEG(c, http.StatusOK, jpeg)
}

// GetFrame godoc
// @Router /api/cameras/{id}/frame.jpg [get]
// @ID camera-frame
// @Tags cameras
// @Param id path string true "Camera"
// @Produce jpeg
// @Summary Latest annotated frame.
// @Description Latest annotated frame, or a placeholder image telling why there is none.
// @Success 200 {file} binary
// @Failure 404 {object} models.APIResponse
func GetFrame(c *gin.Context, controller Controller, configuration *models.Configuration) {
	id := c.Param("id")
	width, height, quality := frameSettings(configuration)

	status, err := controller.Status(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !status.Active {
		writePlaceholder(c, width, height, ReasonNotActive)
		return
	}
	frame, err := controller.ProcessedFrame(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if frame == nil {
		writePlaceholder(c, width, height, ReasonWaiting)
		return
	}

	jpeg, err := computervision.EncodeJPEG(frame, quality)
	if err != nil {
		log.Log.Error("routers.http.GetFrame(): " + err.Error())
		writePlaceholder(c, width, height, ReasonEncodeFailed)
		return
	}
	writeJPEG(c, http.StatusOK, jpeg)
}

// GetStream godoc
// @Router /api/cameras/{id}/stream.mjpeg [get]
// @ID camera-stream
// @Tags cameras
// @Param id path string true "Camera"
// @Summary Multipart MJPEG stream of the annotated frames.
// @Failure 404 {object} models.APIResponse
func GetStream(c *gin.Context, controller Controller, streams *Streams) {
	id := c.Param("id")
	if _, err := controller.Camera(id); err != nil {
		writeError(c, err)
		return
	}
	streams.Stream(id).ServeHTTP(c.Writer, c.Request)
}

// ProbeCamera godoc
// @Router /api/cameras/{id}/probe [get]
// @ID camera-probe
// @Tags cameras
// @Param id path string true "Camera"
// @Summary Describe the RTSP stream of a camera.
// @Description Codec, resolution and frame rate announced by the camera.
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 502 {object} models.APIResponse
func ProbeCamera(c *gin.Context, controller Controller) {
	camera, err := controller.Camera(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ProbeTimeout)
	defer cancel()

	var result models.ProbeResult
	for _, locator := range camera.Locators() {
		result, err = capture.Probe(ctx, locator)
		if err == nil {
			break
		}
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, models.APIResponse{
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Data: result,
	})
}

// GetSystemInfo godoc
// @Router /api/system [get]
// @ID system
// @Tags system
// @Summary Information about the host running the agent.
// @Success 200 {object} models.APIResponse
func GetSystemInfo(c *gin.Context, controller Controller) {
	system, err := utils.GetSystemInfo()
	if err != nil {
		log.Log.Error("routers.http.GetSystemInfo(): " + err.Error())
	}
	system.Cameras = len(controller.Cameras())
	system.Active = controller.Active()
	c.JSON(http.StatusOK, models.APIResponse{
		Data: system,
	})
}
