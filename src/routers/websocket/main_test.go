package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct{}

func (fakeController) StatusAll() map[string]models.DetectorStatus {
	return map[string]models.DetectorStatus{
		"front": {CameraId: "front", Active: true, State: "running", Sequence: 7},
	}
}

func (fakeController) ProcessedFrame(id string) (*models.Frame, error) {
	return nil, nil
}

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		WebsocketHandler(c, fakeController{})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebsocketHello(t *testing.T) {
	conn := dial(t)
	require.NoError(t, conn.WriteJSON(Message{ClientID: "browser", MessageType: "hello"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "hello-back", reply.MessageType)
	assert.Equal(t, "browser", reply.ClientID)
	assert.Equal(t, map[string]interface{}{"message": "Hello browser!"}, reply.Message)
}

func TestWebsocketStatusFeed(t *testing.T) {
	conn := dial(t)
	require.NoError(t, conn.WriteJSON(Message{ClientID: "browser", MessageType: "status"}))

	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "status", reply.MessageType)
	statuses, ok := reply.Message.(map[string]interface{})
	require.True(t, ok)
	front, ok := statuses["front"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "running", front["state"])
	assert.Equal(t, 7.0, front["sequence"])

	require.NoError(t, conn.WriteJSON(Message{ClientID: "browser", MessageType: "stop-status"}))
}
