package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/InVisionApp/conjungo"
	"github.com/cjsmocjsmo/streamserverclient/src/database"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrConfigurationMissing marks a camera that cannot be started because
// part of its configuration is missing.
var ErrConfigurationMissing = errors.New("configuration missing")

var (
	// RetryInterval is the wait between two attempts to read config.json.
	RetryInterval = 5 * time.Second
	// MaxAttempts limits the attempts to read config.json, 0 retries forever.
	MaxAttempts = 0
)

func ConfigPath(configDirectory string) string {
	return filepath.Join(configDirectory, "data", "config", "config.json")
}

// OpenConfig loads the configuration. In a factory deployment it is read
// from MongoDB (a global document merged with the document of this agent),
// otherwise from data/config/config.json.
func OpenConfig(configDirectory string, configuration *models.Configuration) error {
	if os.Getenv("DEPLOYMENT") == "factory" || os.Getenv("MACHINERY_ENVIRONMENT") == "kubernetes" {
		return openFactoryConfig(configuration)
	}

	path := ConfigPath(configDirectory)
	for attempt := 1; ; attempt++ {
		config, err := ReadConfigFile(path)
		if err == nil {
			log.Log.Info("config.main.OpenConfig(): successfully opened " + path)
			configuration.Config = config
			configuration.CustomConfig = config
			return nil
		}
		if MaxAttempts > 0 && attempt >= MaxAttempts {
			return err
		}
		log.Log.Error("config.main.OpenConfig(): " + err.Error() + ", trying again in " + RetryInterval.String())
		time.Sleep(RetryInterval)
	}
}

// ReadConfigFile parses a single json configuration file.
func ReadConfigFile(path string) (config models.Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrap(err, "config file is not found")
	}
	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrap(err, "json file not valid")
	}
	return config, nil
}

func openFactoryConfig(configuration *models.Configuration) error {
	collection := database.New().Collection("configuration")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var globalConfig models.Config
	err := collection.FindOne(ctx, bson.M{"type": "global"}).Decode(&globalConfig)
	if err != nil || globalConfig.Type != "global" {
		return errors.Wrap(ErrConfigurationMissing, "could not find global configuration")
	}

	var customConfig models.Config
	deploymentName := os.Getenv("DEPLOYMENT_NAME")
	err = collection.FindOne(ctx, bson.M{"type": "config", "name": deploymentName}).Decode(&customConfig)
	if err != nil || customConfig.Type != "config" {
		return errors.Wrap(ErrConfigurationMissing, "could not find configuration for "+deploymentName)
	}

	configuration.GlobalConfig = globalConfig
	configuration.CustomConfig = customConfig
	configuration.Config, err = MergeConfigs(globalConfig, customConfig)
	return err
}

// mergeOptions make conjungo keep the target value when the source value is
// empty, so a partial document only overrides what it sets.
func mergeOptions() *conjungo.Options {
	opts := conjungo.NewOptions()
	keep := func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
		if !s.IsValid() || s.IsZero() {
			return t, nil
		}
		return s, nil
	}
	for _, kind := range []interface{}{
		"", 0, float64(0), float32(0), (*bool)(nil),
		[]*models.Timetable(nil), []models.Polygon(nil),
		(*models.Region)(nil), (*models.MotionSettings)(nil),
		(*models.HTTP)(nil), (*models.MQTT)(nil), (*models.S3)(nil),
		map[string]*models.CameraConfig(nil),
	} {
		opts.SetTypeMergeFunc(reflect.TypeOf(kind), keep)
	}
	return opts
}

// MergeConfigs merges the custom configuration of an agent on top of the
// global configuration.
func MergeConfigs(global models.Config, custom models.Config) (models.Config, error) {
	opts := mergeOptions()
	var config models.Config
	if err := conjungo.Merge(&config, global, opts); err != nil {
		return config, errors.Wrap(err, "config.main.MergeConfigs()")
	}
	if err := conjungo.Merge(&config, custom, opts); err != nil {
		return config, errors.Wrap(err, "config.main.MergeConfigs()")
	}

	// Sections are merged field by field.
	var http models.HTTP
	mergeSection(&http, global.HTTP, custom.HTTP, opts)
	config.HTTP = &http
	var mqtt models.MQTT
	mergeSection(&mqtt, global.MQTT, custom.MQTT, opts)
	config.MQTT = &mqtt
	var s3 models.S3
	mergeSection(&s3, global.S3, custom.S3, opts)
	config.S3 = &s3

	// The streams of both documents are combined, custom wins.
	config.Cameras = map[string]*models.CameraConfig{}
	for id, camera := range global.Cameras {
		config.Cameras[id] = camera
	}
	for id, camera := range custom.Cameras {
		config.Cameras[id] = camera
	}
	return config, nil
}

func mergeSection(target interface{}, global interface{}, custom interface{}, opts *conjungo.Options) {
	for _, source := range []interface{}{global, custom} {
		if reflect.ValueOf(source).IsNil() {
			continue
		}
		if err := conjungo.Merge(target, source, opts); err != nil {
			log.Log.Error("config.main.mergeSection(): " + err.Error())
		}
	}
}

// ResolveMotionSettings layers the motion settings of a camera on top of
// the agent wide settings, on top of the defaults.
func ResolveMotionSettings(global models.MotionSettings, camera *models.CameraConfig) models.MotionSettings {
	opts := mergeOptions()
	settings := models.DefaultMotionSettings()
	if err := conjungo.Merge(&settings, global, opts); err != nil {
		log.Log.Error("config.main.ResolveMotionSettings(): " + err.Error())
	}
	if camera != nil && camera.Motion != nil {
		if err := conjungo.Merge(&settings, *camera.Motion, opts); err != nil {
			log.Log.Error("config.main.ResolveMotionSettings(): " + err.Error())
		}
	}
	return settings
}

// ValidateCameras returns the identifiers of the cameras that can be
// started, in sorted order, and an error for every camera that cannot.
func ValidateCameras(config *models.Config) (valid []string, problems []error) {
	for id, camera := range config.Cameras {
		if camera == nil || len(camera.Locators()) == 0 {
			problems = append(problems, errors.Wrap(ErrConfigurationMissing, "camera "+id+" has no url"))
			continue
		}
		if camera.Id == "" {
			camera.Id = id
		}
		if camera.Name == "" {
			camera.Name = id
		}
		valid = append(valid, id)
	}
	sort.Strings(valid)
	return
}

// OverrideWithEnvironmentVariables overrides the configuration with AGENT_*
// environment variables. Streams are configured with
// AGENT_STREAM_<ID>_URL, AGENT_STREAM_<ID>_FALLBACK_URL and
// AGENT_STREAM_<ID>_NAME.
func OverrideWithEnvironmentVariables(configuration *models.Configuration) {
	config := &configuration.Config
	if config.HTTP == nil {
		config.HTTP = &models.HTTP{}
	}
	if config.MQTT == nil {
		config.MQTT = &models.MQTT{}
	}
	if config.S3 == nil {
		config.S3 = &models.S3{}
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "AGENT_") {
			continue
		}
		key := strings.SplitN(env, "=", 2)[0]
		value := os.Getenv(key)
		switch key {

		/* General configuration */
		case "AGENT_KEY":
			config.Key = value
		case "AGENT_NAME":
			config.Name = value
		case "AGENT_TIMEZONE":
			config.Timezone = value
		case "AGENT_LOG_LEVEL":
			config.LogLevel = value
		case "AGENT_LOG_OUTPUT":
			config.LogOutput = value

		/* Conditions */
		case "AGENT_TIME":
			config.Time = value
		case "AGENT_TIMETABLE":
			config.Timetable = parseTimetable(value)
		case "AGENT_CONDITION_URI":
			config.ConditionURI = value

		/* Motion detection */
		case "AGENT_MOTION_WIDTH":
			setInt(&config.Motion.Width, value)
		case "AGENT_MOTION_HEIGHT":
			setInt(&config.Motion.Height, value)
		case "AGENT_MOTION_MIN_AREA":
			setFloat(&config.Motion.MinArea, value)
		case "AGENT_MOTION_MAX_AREA":
			setFloat(&config.Motion.MaxArea, value)
		case "AGENT_MOTION_MIN_ASPECT":
			setFloat(&config.Motion.MinAspect, value)
		case "AGENT_MOTION_MAX_ASPECT":
			setFloat(&config.Motion.MaxAspect, value)
		case "AGENT_MOTION_HISTORY":
			setInt(&config.Motion.History, value)
		case "AGENT_MOTION_VAR_THRESHOLD":
			setFloat(&config.Motion.VarThreshold, value)
		case "AGENT_MOTION_DETECT_SHADOWS":
			shadows := value != "false"
			config.Motion.DetectShadows = &shadows
		case "AGENT_MOTION_CYCLE_DELAY":
			setInt(&config.Motion.CycleDelay, value)

		/* HTTP api */
		case "AGENT_HTTP_PORT":
			config.HTTP.Port = value
		case "AGENT_HTTP_AUTH":
			config.HTTP.Auth = value
		case "AGENT_HTTP_USERNAME":
			config.HTTP.Username = value
		case "AGENT_HTTP_PASSWORD":
			config.HTTP.Password = value
		case "AGENT_HTTP_JWT_SECRET":
			config.HTTP.JWTSecret = value

		/* MQTT settings for bi-directional communication */
		case "AGENT_MQTT_URI":
			config.MQTT.URI = value
		case "AGENT_MQTT_USERNAME":
			config.MQTT.Username = value
		case "AGENT_MQTT_PASSWORD":
			config.MQTT.Password = value
		case "AGENT_MQTT_CLIENT_ID":
			config.MQTT.ClientID = value
		case "AGENT_MQTT_TOPIC_PREFIX":
			config.MQTT.TopicPrefix = value

		/* S3 bucket for motion snapshots */
		case "AGENT_S3_ENDPOINT":
			config.S3.Endpoint = value
		case "AGENT_S3_REGION":
			config.S3.Region = value
		case "AGENT_S3_BUCKET":
			config.S3.Bucket = value
		case "AGENT_S3_ACCESS_KEY":
			config.S3.Publickey = value
		case "AGENT_S3_SECRET_KEY":
			config.S3.Secretkey = value
		case "AGENT_S3_SECURE":
			config.S3.Secure = value
		case "AGENT_S3_DIRECTORY":
			config.S3.Directory = value

		default:
			if strings.HasPrefix(key, "AGENT_STREAM_") {
				overrideStream(config, strings.TrimPrefix(key, "AGENT_STREAM_"), value)
			}
		}
	}
}

func overrideStream(config *models.Config, suffix string, value string) {
	var id, field string
	for _, f := range []string{"_FALLBACK_URL", "_URL", "_NAME", "_SOURCE", "_AUTO_START"} {
		if strings.HasSuffix(suffix, f) {
			id = strings.ToLower(strings.TrimSuffix(suffix, f))
			field = f
			break
		}
	}
	if id == "" {
		return
	}
	if config.Cameras == nil {
		config.Cameras = map[string]*models.CameraConfig{}
	}
	camera := config.Cameras[id]
	if camera == nil {
		camera = &models.CameraConfig{Id: id}
		config.Cameras[id] = camera
	}
	switch field {
	case "_URL":
		camera.URL = value
	case "_FALLBACK_URL":
		camera.FallbackURL = value
	case "_NAME":
		camera.Name = value
	case "_SOURCE":
		camera.Source = value
	case "_AUTO_START":
		camera.AutoStart = value
	}
}

// parseTimetable reads "start1,end1,start2,end2;..." with one group per
// weekday, starting on sunday.
func parseTimetable(value string) []*models.Timetable {
	var timetable []*models.Timetable
	for _, dayString := range strings.Split(value, ";") {
		timeString := strings.Split(dayString, ",")
		if len(timeString) != 4 {
			continue
		}
		var values [4]int
		valid := true
		for i, s := range timeString {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				valid = false
				break
			}
			values[i] = v
		}
		if !valid {
			continue
		}
		timetable = append(timetable, &models.Timetable{
			Start1: values[0],
			End1:   values[1],
			Start2: values[2],
			End2:   values[3],
		})
	}
	return timetable
}

func setInt(target *int, value string) {
	if v, err := strconv.Atoi(value); err == nil {
		*target = v
	}
}

func setFloat(target *float64, value string) {
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		*target = v
	}
}
