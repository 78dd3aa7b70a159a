package websocket

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/computervision"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Controller is what the websocket feeds read from.
type Controller interface {
	StatusAll() map[string]models.DetectorStatus
	ProcessedFrame(id string) (*models.Frame, error)
}

type Message struct {
	ClientID    string      `json:"client_id" bson:"client_id"`
	MessageType string      `json:"message_type" bson:"message_type"`
	Message     interface{} `json:"message" bson:"message"`
}

type Connection struct {
	Socket  *websocket.Conn
	mu      sync.Mutex
	Cancels map[string]context.CancelFunc
}

// Concurrency handling - sending messages
func (c *Connection) WriteJson(message Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Socket.WriteJSON(message)
}

// cancel stops a running feed, it reports whether one was running.
func (c *Connection) cancel(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cancel, exists := c.Cancels[name]
	if exists {
		cancel()
		delete(c.Cancels, name)
	}
	return exists
}

func (c *Connection) start(name string) (context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.Cancels[name]; exists {
		return nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.Cancels[name] = cancel
	return ctx, true
}

func (c *Connection) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, cancel := range c.Cancels {
		cancel()
		delete(c.Cancels, name)
	}
}

// StatusInterval is the period of the status feed.
var StatusInterval = time.Second

// FrameInterval is the period of the frame feed.
var FrameInterval = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler serves one browser. Supported messages are hello,
// status, stop-status, stream-sd (message: {"camera_id": ...}) and
// stop-sd.
func WebsocketHandler(c *gin.Context, controller Controller) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Log.Error("WebsocketHandler: " + err.Error())
		return
	}
	defer conn.Close()

	connection := &Connection{
		Socket:  conn,
		Cancels: map[string]context.CancelFunc{},
	}
	defer connection.cancelAll()

	var clientID string
	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			break
		}
		if clientID == "" {
			clientID = message.ClientID
		}
		HandleMessage(connection, clientID, message, controller)
	}
	log.Log.Info("WebsocketHandler: " + clientID + ": terminated and disconnected websocket connection.")
}

// HandleMessage executes one request of a client.
func HandleMessage(connection *Connection, clientID string, message Message, controller Controller) {
	switch message.MessageType {
	case "hello":
		connection.WriteJson(Message{
			ClientID:    clientID,
			MessageType: "hello-back",
			Message: map[string]string{
				"message": "Hello " + clientID + "!",
			},
		})

	case "status":
		if ctx, ok := connection.start("status"); ok {
			go ForwardStatus(ctx, clientID, connection, controller)
		}

	case "stop-status":
		connection.cancel("status")

	case "stream-sd":
		cameraId := ""
		if m, ok := message.Message.(map[string]interface{}); ok {
			cameraId, _ = m["camera_id"].(string)
		}
		if ctx, ok := connection.start("stream-sd"); ok {
			go ForwardSDStream(ctx, clientID, cameraId, connection, controller)
		} else {
			log.Log.Info("WebsocketHandler: already streaming sd for " + clientID)
		}

	case "stop-sd":
		if !connection.cancel("stream-sd") {
			log.Log.Error("WebsocketHandler: streaming sd does not exists for " + clientID)
		}
	}
}

// ForwardStatus pushes the status of every camera until ctx is done.
func ForwardStatus(ctx context.Context, clientID string, connection *Connection, controller Controller) {
	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()
	for {
		err := connection.WriteJson(Message{
			ClientID:    clientID,
			MessageType: "status",
			Message:     controller.StatusAll(),
		})
		if err != nil {
			log.Log.Error("ForwardStatus: " + err.Error())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ForwardSDStream pushes the annotated frames of a camera as base64 JPEG.
func ForwardSDStream(ctx context.Context, clientID string, cameraId string, connection *Connection, controller Controller) {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	var last uint64
	var lastProcessed bool
logreader:
	for {
		select {
		case <-ctx.Done():
			break logreader
		case <-ticker.C:
		}

		frame, err := controller.ProcessedFrame(cameraId)
		if err != nil {
			log.Log.Error("ForwardSDStream: " + err.Error())
			break logreader
		}
		if !frame.Newer(last, lastProcessed) {
			continue
		}
		last, lastProcessed = frame.Sequence, frame.Processed
		bytes, err := computervision.EncodeJPEG(frame, computervision.DefaultJPEGQuality)
		if err != nil {
			continue
		}
		err = connection.WriteJson(Message{
			ClientID:    clientID,
			MessageType: "image",
			Message: map[string]string{
				"camera_id": cameraId,
				"base64":    base64.StdEncoding.EncodeToString(bytes),
			},
		})
		if err != nil {
			log.Log.Error("ForwardSDStream: " + err.Error())
			break logreader
		}
	}

	log.Log.Info("ForwardSDStream: stop sending streaming over websocket")
}
