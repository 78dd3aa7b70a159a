package mqtt

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/utils"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const DefaultTopicPrefix = "rtsp_client"

var ErrUnknownCommand = errors.New("unknown control command")

// Controller is the part of the agent that can be driven over MQTT.
type Controller interface {
	Start(cameraId string) error
	Stop(cameraId string) error
	Snapshot(cameraId string) (string, error)
	Stats() map[string]models.CameraStats
}

// TopicPrefix returns the configured prefix, or the default one.
func TopicPrefix(config *models.Config) string {
	if config.MQTT != nil && config.MQTT.TopicPrefix != "" {
		return strings.TrimSuffix(config.MQTT.TopicPrefix, "/")
	}
	return DefaultTopicPrefix
}

// ConfigureMQTT connects to the configured broker and subscribes to the
// control topics. It returns nil when no broker is configured.
func ConfigureMQTT(configuration *models.Configuration, controller Controller) mqtt.Client {

	config := configuration.Config
	if config.MQTT == nil || config.MQTT.URI == "" {
		log.Log.Info("ConfigureMQTT: no broker configured, MQTT is disabled")
		return nil
	}

	opts := mqtt.NewClientOptions()

	// We will set the MQTT endpoint to which we want to connect
	// and share and receive messages to/from.
	mqttURL := config.MQTT.URI
	opts.AddBroker(mqttURL)
	log.Log.Info("ConfigureMQTT: Set broker uri " + mqttURL)

	// Our MQTT broker can have username/password credentials
	// to protect it from the outside.
	if config.MQTT.Username != "" || config.MQTT.Password != "" {
		opts.SetUsername(config.MQTT.Username)
		opts.SetPassword(config.MQTT.Password)
		log.Log.Info("ConfigureMQTT: Set username " + config.MQTT.Username)
	}

	// Some extra options to make sure the connection behaves
	// properly. More information here: github.com/eclipse/paho.mqtt.golang.
	opts.SetCleanSession(true)
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(30 * time.Second)

	mqttClientID := config.MQTT.ClientID
	if mqttClientID == "" {
		// The random suffix avoids conflicts between agents sharing a key.
		mqttClientID = "streamserverclient_" + config.Key + utils.RandStringBytesMaskImpr(4)
	}
	opts.SetClientID(mqttClientID)
	log.Log.Info("ConfigureMQTT: Set ClientID " + mqttClientID)

	prefix := TopicPrefix(&config)
	opts.OnConnect = func(c mqtt.Client) {
		log.Log.Info("ConfigureMQTT: " + mqttClientID + " connected to " + mqttURL)
		MQTTListenerHandleControl(c, prefix, controller)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Log.Warning("ConfigureMQTT: connection lost, " + err.Error())
	}

	mqc := mqtt.NewClient(opts)
	if token := mqc.Connect(); token.WaitTimeout(3 * time.Second) {
		if token.Error() != nil {
			log.Log.Error("ConfigureMQTT: unable to establish mqtt broker connection, error was: " + token.Error().Error())
		}
	}
	return mqc
}

// MQTTListenerHandleControl subscribes to <prefix>/control/+.
func MQTTListenerHandleControl(mqttClient mqtt.Client, prefix string, controller Controller) {
	topic := prefix + "/control/+"
	token := mqttClient.Subscribe(topic, 1, ControlMessageHandler(controller))
	if token.WaitTimeout(3*time.Second) && token.Error() != nil {
		log.Log.Error("MQTTListenerHandleControl: unable to subscribe to " + topic + ", " + token.Error().Error())
		return
	}
	log.Log.Info("MQTTListenerHandleControl: subscribed to " + topic)
}

// ControlMessageHandler acknowledges a control message and executes it on
// its own goroutine, opening a camera can take several seconds and the
// client must not be blocked meanwhile.
func ControlMessageHandler(controller Controller) mqtt.MessageHandler {
	return func(c mqtt.Client, msg mqtt.Message) {
		topic, payload := msg.Topic(), msg.Payload()
		msg.Ack()
		go func() {
			if err := HandleControl(controller, topic, payload); err != nil {
				log.Log.Error("MQTTListenerHandleControl: " + err.Error())
			}
		}()
	}
}

// CameraFromTopic extracts the camera of a <prefix>/control/<camera> topic.
func CameraFromTopic(topic string) (string, bool) {
	index := strings.LastIndex(topic, "/control/")
	if index < 0 {
		return "", false
	}
	camera := topic[index+len("/control/"):]
	if camera == "" || strings.Contains(camera, "/") {
		return "", false
	}
	return camera, true
}

// HandleControl executes one control message.
func HandleControl(controller Controller, topic string, payload []byte) error {
	camera, ok := CameraFromTopic(topic)
	if !ok {
		return errors.New("not a control topic: " + topic)
	}
	command := strings.ToLower(strings.TrimSpace(string(payload)))
	log.Log.Info("HandleControl: received " + command + " for " + camera)

	switch command {
	case "connect", "start":
		return controller.Start(camera)
	case "disconnect", "stop":
		return controller.Stop(camera)
	case "snapshot":
		name, err := controller.Snapshot(camera)
		if err != nil {
			return err
		}
		log.Log.Info("HandleControl: snapshot of " + camera + " stored as " + name)
		return nil
	default:
		return errors.Wrap(ErrUnknownCommand, command)
	}
}

// PublishMotionEvent publishes a motion event on camera/<id>/events.
func PublishMotionEvent(mqttClient mqtt.Client, camera *models.CameraConfig, event models.MotionEvent, snapshotPath string) error {
	cameraType := camera.Type
	if cameraType == "" {
		cameraType = "rtsp"
	}
	payload, err := models.PackageEventMessage(models.EventMessage{
		Type:         "motion_detected",
		CameraId:     camera.Id,
		CameraName:   camera.Name,
		CameraType:   cameraType,
		Timestamp:    utils.FormatTimestamp(event.Timestamp),
		Boxes:        event.Boxes,
		LargestArea:  models.LargestArea(event.Boxes),
		SnapshotPath: snapshotPath,
	})
	if err != nil {
		return errors.Wrap(err, "PublishMotionEvent")
	}
	return publish(mqttClient, "camera/"+camera.Id+"/events", 1, payload)
}

// PublishStatus publishes <prefix>/status/<camera>.
func PublishStatus(mqttClient mqtt.Client, prefix string, cameraId string, status string) error {
	payload, err := json.Marshal(models.StatusMessage{
		Status:    status,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return publish(mqttClient, prefix+"/status/"+cameraId, 1, payload)
}

// StatusFromState maps a detector state onto the published status.
func StatusFromState(state models.DetectorState) (string, bool) {
	switch state {
	case models.StateRunning:
		return "connected", true
	case models.StateIdle:
		return "disconnected", true
	default:
		return "", false
	}
}

func publish(mqttClient mqtt.Client, topic string, qos byte, payload []byte) error {
	if mqttClient == nil || !mqttClient.IsConnected() {
		return errors.New("mqtt not connected, cannot publish on " + topic)
	}
	token := mqttClient.Publish(topic, qos, false, payload)
	if token.WaitTimeout(3*time.Second) && token.Error() != nil {
		return errors.Wrap(token.Error(), topic)
	}
	return nil
}

// StatsPublisher publishes <prefix>/stats/<camera> with the frame rate
// measured since the previous publication.
type StatsPublisher struct {
	Client     mqtt.Client
	Prefix     string
	Controller Controller
	Interval   time.Duration

	mutex    sync.Mutex
	previous map[string]uint64
	last     time.Time
}

func NewStatsPublisher(mqttClient mqtt.Client, prefix string, controller Controller) *StatsPublisher {
	return &StatsPublisher{
		Client:     mqttClient,
		Prefix:     prefix,
		Controller: controller,
		Interval:   10 * time.Second,
		previous:   map[string]uint64{},
	}
}

// Messages computes the stats messages for the given moment.
func (p *StatsPublisher) Messages(now time.Time) map[string]models.StatsMessage {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	elapsed := now.Sub(p.last).Seconds()
	first := p.last.IsZero()
	p.last = now

	messages := map[string]models.StatsMessage{}
	for camera, stats := range p.Controller.Stats() {
		fps := 0
		if !first && elapsed > 0 && stats.Frames >= p.previous[camera] {
			fps = int(float64(stats.Frames-p.previous[camera])/elapsed + 0.5)
		}
		p.previous[camera] = stats.Frames
		messages[camera] = models.StatsMessage{
			FPS:        fps,
			Resolution: strconv.Itoa(stats.Width) + "x" + strconv.Itoa(stats.Height),
			Timestamp:  now.Unix(),
		}
	}
	return messages
}

// Run publishes the stats every interval until ctx is done.
func (p *StatsPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	p.Messages(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for camera, message := range p.Messages(now) {
				payload, err := json.Marshal(message)
				if err != nil {
					continue
				}
				if err := publish(p.Client, p.Prefix+"/stats/"+camera, 0, payload); err != nil {
					log.Log.Debug("StatsPublisher.Run(): " + err.Error())
				}
			}
		}
	}
}

func DisconnectMQTT(mqttClient mqtt.Client) {
	if mqttClient != nil {
		mqttClient.Disconnect(1000)
		log.Log.Info("DisconnectMQTT: disconnected from broker")
	}
}
