package components

import (
	"context"
	"strconv"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/cloud"
	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/metrics"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	routers "github.com/cjsmocjsmo/streamserverclient/src/routers/mqtt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

var ErrNoFrame = errors.New("no frame available")

// WatchdogInterval is the period of the stalled camera check. A running
// camera that processed no frame during three checks is reconnected.
var WatchdogInterval = 5 * time.Second

// Agent is a bootstrapped set of detectors together with the services
// that consume them.
type Agent struct {
	*Manager

	ConfigDirectory string
	Configuration   *models.Configuration
	Metrics         *metrics.Metrics
	MQTT            mqtt.Client
	S3              *cloud.S3
	UptimeStart     time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Bootstrap creates a detector for every valid camera, wires the metrics,
// MQTT and S3 listeners, and starts the cameras with auto_start enabled.
// factory may be nil, cameras are then opened with capture.NewSource.
func Bootstrap(ctx context.Context, configDirectory string, configuration *models.Configuration, factory SourceFactory) *Agent {
	log.Log.Debug("components.Bootstrap.Bootstrap(): started")

	ctx, cancel := context.WithCancel(ctx)
	manager, _ := NewManager(ctx, configuration, factory)
	agent := &Agent{
		Manager:         manager,
		ConfigDirectory: configDirectory,
		Configuration:   configuration,
		Metrics:         metrics.New(),
		UptimeStart:     time.Now(),
		ctx:             ctx,
		cancel:          cancel,
	}
	agent.AddHooks(agent.metricsHooks())

	s3, err := cloud.NewS3(&configuration.Config)
	if err == nil {
		agent.S3 = s3
	} else if !errors.Is(err, cloud.ErrNotConfigured) {
		log.Log.Error("components.Bootstrap.Bootstrap(): snapshot uploads disabled, " + err.Error())
	}

	// The MQTT client needs the agent to handle control messages, the
	// agent needs the client to publish.
	agent.MQTT = routers.ConfigureMQTT(configuration, agent)
	prefix := routers.TopicPrefix(&configuration.Config)
	if agent.MQTT != nil {
		agent.AddHooks(agent.mqttHooks(prefix))
		go routers.NewStatsPublisher(agent.MQTT, prefix, agent).Run(ctx)
	} else if agent.S3 != nil {
		agent.AddHooks(Hooks{
			OnMotion: func(event models.MotionEvent) {
				go agent.uploadEvent(event)
			},
		})
	}

	go ControlAgent(ctx, manager, WatchdogInterval)

	manager.AutoStart()
	log.Log.Info("components.Bootstrap.Bootstrap(): " + strconv.Itoa(manager.Active()) + " of " + strconv.Itoa(len(manager.order)) + " cameras running")
	return agent
}

func (a *Agent) metricsHooks() Hooks {
	return Hooks{
		OnCycle: func(cameraId string, report CycleReport) {
			a.Metrics.ObserveCycle(cameraId, len(report.Boxes), report.Duration, report.RenderErr != nil)
		},
		OnReadFailure: func(cameraId string) {
			a.Metrics.ReadErrors.WithLabelValues(cameraId).Inc()
		},
		OnCycleFailure: func(cameraId string, err error) {
			a.Metrics.ProcessErrors.WithLabelValues(cameraId).Inc()
		},
		OnMotion: func(event models.MotionEvent) {
			a.Metrics.MotionEvents.WithLabelValues(event.CameraId).Inc()
		},
		OnState: func(cameraId string, state models.DetectorState) {
			a.Metrics.ActiveDetectors.Store(int64(a.Active()))
		},
	}
}

func (a *Agent) mqttHooks(prefix string) Hooks {
	return Hooks{
		OnMotion: func(event models.MotionEvent) {
			go func() {
				snapshotPath := a.uploadEvent(event)
				camera, err := a.Camera(event.CameraId)
				if err != nil {
					return
				}
				if err := routers.PublishMotionEvent(a.MQTT, camera, event, snapshotPath); err != nil {
					log.Log.Error("components.Bootstrap.mqttHooks(): " + err.Error())
				}
			}()
		},
		OnState: func(cameraId string, state models.DetectorState) {
			status, ok := routers.StatusFromState(state)
			if !ok {
				return
			}
			go func() {
				if err := routers.PublishStatus(a.MQTT, prefix, cameraId, status); err != nil {
					log.Log.Debug("components.Bootstrap.mqttHooks(): " + err.Error())
				}
			}()
		},
	}
}

// uploadEvent stores the annotated frame of a motion event, it returns the
// object name or an empty string when nothing was uploaded.
func (a *Agent) uploadEvent(event models.MotionEvent) string {
	if a.S3 == nil || event.Frame == nil {
		return ""
	}
	jpeg, err := computervision.EncodeJPEG(event.Frame, computervision.DefaultJPEGQuality)
	if err != nil {
		log.Log.Error("components.Bootstrap.uploadEvent(): " + err.Error())
		return ""
	}
	name, err := a.S3.UploadSnapshot(event.CameraId, event.Timestamp, len(event.Boxes), jpeg)
	if err != nil {
		return ""
	}
	return name
}

// Snapshot uploads the current annotated frame of a camera.
func (a *Agent) Snapshot(cameraId string) (string, error) {
	if a.S3 == nil {
		return "", cloud.ErrNotConfigured
	}
	frame, err := a.ProcessedFrame(cameraId)
	if err != nil {
		return "", err
	}
	if frame == nil {
		return "", errors.Wrap(ErrNoFrame, cameraId)
	}
	status, _ := a.Status(cameraId)
	jpeg, err := computervision.EncodeJPEG(frame, computervision.DefaultJPEGQuality)
	if err != nil {
		return "", err
	}
	return a.S3.UploadSnapshot(cameraId, time.Now(), status.Boxes, jpeg)
}

// Uptime is the time since the agent was bootstrapped.
func (a *Agent) Uptime() time.Duration {
	return time.Since(a.UptimeStart)
}

// Shutdown stops every detector and disconnects from the broker.
func (a *Agent) Shutdown() {
	log.Log.Info("components.Bootstrap.Shutdown(): stopping all cameras")
	a.cancel()
	a.StopAll()
	routers.DisconnectMQTT(a.MQTT)
	log.Log.Debug("components.Bootstrap.Shutdown(): finished")
}

// ControlAgent reconnects running cameras that stopped delivering frames.
// It never stops a detector, the camera stays active until a caller stops
// it.
func ControlAgent(ctx context.Context, manager *Manager, interval time.Duration) {
	log.Log.Debug("components.Bootstrap.ControlAgent(): started")
	previous := map[string]uint64{}
	occurences := map[string]int{}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Log.Debug("components.Bootstrap.ControlAgent(): finished")
			return
		case <-ticker.C:
		}

		for _, d := range manager.all() {
			id := d.Camera.Id
			frames := d.FramesProcessed()
			if d.State() != models.StateRunning || frames != previous[id] {
				occurences[id] = 0
				previous[id] = frames
				continue
			}
			occurences[id]++
			if occurences[id] < 3 {
				continue
			}
			occurences[id] = 0
			log.Log.Warning("components.Bootstrap.ControlAgent(): no frames from " + id + " in " + (3 * interval).String() + ", reconnecting")
			d.Reconnect()
		}
	}
}
