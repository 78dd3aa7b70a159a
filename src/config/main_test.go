package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
	"type": "config",
	"name": "garage",
	"timezone": "Europe/Brussels",
	"motion": {"min_area": 800, "max_area": 20000},
	"streams": {
		"front": {"name": "Front door", "url": "rtsp://10.0.0.2/stream1", "fallback_url": "rtsp://10.0.0.2/stream2", "auto_start": "true"},
		"back": {"name": "Back yard", "url": "rtsp://10.0.0.3/stream1", "motion": {"min_area": 400, "width": 320, "height": 240}},
		"broken": {"name": "No url"}
	},
	"mqtt": {"uri": "tcp://broker:1883"}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := ConfigPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir
}

func TestOpenConfig(t *testing.T) {
	dir := writeConfig(t, sampleConfig)

	var configuration models.Configuration
	require.NoError(t, OpenConfig(dir, &configuration))

	config := configuration.Config
	assert.Equal(t, "garage", config.Name)
	require.Len(t, config.Cameras, 3)
	assert.Equal(t, "rtsp://10.0.0.2/stream2", config.Cameras["front"].FallbackURL)
	assert.Equal(t, "tcp://broker:1883", config.MQTT.URI)
}

func TestOpenConfigMissingFile(t *testing.T) {
	MaxAttempts = 1
	defer func() { MaxAttempts = 0 }()

	var configuration models.Configuration
	err := OpenConfig(t.TempDir(), &configuration)
	assert.Error(t, err)
}

func TestReadConfigFileInvalidJSON(t *testing.T) {
	dir := writeConfig(t, `{"streams": `)
	_, err := ReadConfigFile(ConfigPath(dir))
	assert.Error(t, err)
}

func TestResolveMotionSettings(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	config, err := ReadConfigFile(ConfigPath(dir))
	require.NoError(t, err)

	front := ResolveMotionSettings(config.Motion, config.Cameras["front"])
	assert.Equal(t, 800.0, front.MinArea)
	assert.Equal(t, 20000.0, front.MaxArea)
	assert.Equal(t, 640, front.Width)
	assert.Equal(t, 1.2, front.MinAspect)
	assert.True(t, front.ShadowsEnabled())

	back := ResolveMotionSettings(config.Motion, config.Cameras["back"])
	assert.Equal(t, 400.0, back.MinArea)
	assert.Equal(t, 20000.0, back.MaxArea)
	assert.Equal(t, 320, back.Width)
	assert.Equal(t, 240, back.Height)
	assert.Equal(t, 500, back.History)
}

func TestResolveMotionSettingsDisablesShadows(t *testing.T) {
	shadows := false
	settings := ResolveMotionSettings(models.MotionSettings{}, &models.CameraConfig{
		Motion: &models.MotionSettings{DetectShadows: &shadows},
	})
	assert.False(t, settings.ShadowsEnabled())
	assert.Equal(t, models.DefaultMotionSettings().MinArea, settings.MinArea)
}

func TestValidateCameras(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	config, err := ReadConfigFile(ConfigPath(dir))
	require.NoError(t, err)

	valid, problems := ValidateCameras(&config)
	assert.Equal(t, []string{"back", "front"}, valid)
	require.Len(t, problems, 1)
	assert.True(t, errors.Is(problems[0], ErrConfigurationMissing))
	assert.Equal(t, "front", config.Cameras["front"].Id)
}

func TestMergeConfigs(t *testing.T) {
	global := models.Config{
		Type:     "global",
		Timezone: "UTC",
		Motion:   models.MotionSettings{MinArea: 1000, History: 300},
		MQTT:     &models.MQTT{URI: "tcp://global:1883", TopicPrefix: "agents"},
		Cameras: map[string]*models.CameraConfig{
			"lobby": {URL: "rtsp://lobby"},
		},
	}
	custom := models.Config{
		Type:   "config",
		Name:   "garage",
		Motion: models.MotionSettings{MinArea: 500},
		MQTT:   &models.MQTT{URI: "tcp://custom:1883"},
		Cameras: map[string]*models.CameraConfig{
			"front": {URL: "rtsp://front"},
		},
	}

	config, err := MergeConfigs(global, custom)
	require.NoError(t, err)
	assert.Equal(t, "config", config.Type)
	assert.Equal(t, "garage", config.Name)
	assert.Equal(t, "UTC", config.Timezone)
	assert.Equal(t, 500.0, config.Motion.MinArea)
	assert.Equal(t, 300, config.Motion.History)
	assert.Equal(t, "tcp://custom:1883", config.MQTT.URI)
	assert.Equal(t, "agents", config.MQTT.TopicPrefix)
	assert.NotNil(t, config.S3)
	assert.Len(t, config.Cameras, 2)
}

func TestOverrideWithEnvironmentVariables(t *testing.T) {
	t.Setenv("AGENT_NAME", "porch")
	t.Setenv("AGENT_MOTION_MIN_AREA", "700")
	t.Setenv("AGENT_MOTION_DETECT_SHADOWS", "false")
	t.Setenv("AGENT_MQTT_URI", "tcp://env:1883")
	t.Setenv("AGENT_STREAM_PORCH_URL", "rtsp://porch/main")
	t.Setenv("AGENT_STREAM_PORCH_FALLBACK_URL", "rtsp://porch/sub")
	t.Setenv("AGENT_TIMETABLE", "0,3600,7200,10800;bad;1,2,3,4")

	var configuration models.Configuration
	OverrideWithEnvironmentVariables(&configuration)
	config := configuration.Config

	assert.Equal(t, "porch", config.Name)
	assert.Equal(t, 700.0, config.Motion.MinArea)
	assert.False(t, config.Motion.ShadowsEnabled())
	assert.Equal(t, "tcp://env:1883", config.MQTT.URI)
	require.Contains(t, config.Cameras, "porch")
	assert.Equal(t, "rtsp://porch/main", config.Cameras["porch"].URL)
	assert.Equal(t, "rtsp://porch/sub", config.Cameras["porch"].FallbackURL)
	require.Len(t, config.Timetable, 2)
	assert.Equal(t, 7200, config.Timetable[0].Start2)
}
