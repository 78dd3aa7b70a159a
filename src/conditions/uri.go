package conditions

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/utils"
)

// ConditionTimeout bounds one request to the condition uri.
var ConditionTimeout = 2 * time.Second

// ConditionValidity is how long an answer of the condition uri is reused.
var ConditionValidity = 5 * time.Second

type conditionRequest struct {
	CameraId   string `json:"camera_id"`
	CameraName string `json:"camera_name"`
	AgentKey   string `json:"agent_key"`
	AgentName  string `json:"agent_name"`
	Timestamp  string `json:"timestamp"`
}

func conditionClient() *http.Client {
	client := &http.Client{Timeout: ConditionTimeout}
	if os.Getenv("AGENT_TLS_INSECURE") == "true" {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}

// IsValidUriResponse sends a POST describing the camera to the condition
// uri and expects a 200 response. Without condition uri motion is always
// allowed.
func IsValidUriResponse(config *models.Config, camera *models.CameraConfig, now time.Time) (enabled bool) {
	conditionURI := config.ConditionURI
	enabled = true
	if conditionURI == "" {
		return
	}

	object, _ := json.Marshal(conditionRequest{
		CameraId:   camera.Id,
		CameraName: camera.Name,
		AgentKey:   config.Key,
		AgentName:  config.Name,
		Timestamp:  utils.FormatTimestamp(now),
	})
	req, err := http.NewRequest(http.MethodPost, conditionURI, bytes.NewBuffer(object))
	if err != nil {
		log.Log.Error("conditions.uri.IsValidUriResponse(): " + err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := conditionClient().Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode == http.StatusOK {
		log.Log.Debug("conditions.uri.IsValidUriResponse(): response 200, reporting motion for " + camera.Id)
	} else {
		log.Log.Info("conditions.uri.IsValidUriResponse(): response not 200, ignoring motion for " + camera.Id)
		enabled = false
	}
	return
}

// URICondition caches the answer of the condition uri for one camera.
type URICondition struct {
	config *models.Config
	camera *models.CameraConfig

	mutex   sync.Mutex
	checked time.Time
	valid   bool
}

func NewURICondition(config *models.Config, camera *models.CameraConfig) *URICondition {
	return &URICondition{config: config, camera: camera}
}

// Valid returns the cached answer, the condition uri is asked again once
// the answer is older than ConditionValidity.
func (u *URICondition) Valid(now time.Time) bool {
	if u.config.ConditionURI == "" {
		return true
	}
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if !u.checked.IsZero() && now.Sub(u.checked) >= 0 && now.Sub(u.checked) < ConditionValidity {
		return u.valid
	}
	u.valid = IsValidUriResponse(u.config, u.camera, now)
	u.checked = now
	return u.valid
}
