package models

// Configuration wraps the merged configuration together with the
// documents it was merged from.
type Configuration struct {
	Name         string
	Port         string
	Config       Config
	CustomConfig Config
	GlobalConfig Config
}

// Config is the highlevel struct which contains all the configuration of
// the agent: the cameras it watches and how motion is detected on them.
type Config struct {
	Type      string                   `json:"type" bson:"type"`
	Key       string                   `json:"key" bson:"key"`
	Name      string                   `json:"name" bson:"name"`
	Timezone  string                   `json:"timezone,omitempty" bson:"timezone,omitempty"`
	LogLevel  string                   `json:"log_level,omitempty" bson:"log_level,omitempty"`
	LogOutput string                   `json:"log_output,omitempty" bson:"log_output,omitempty"`
	Cameras   map[string]*CameraConfig `json:"streams" bson:"streams"`
	Motion    MotionSettings           `json:"motion" bson:"motion"`
	Time      string                   `json:"time,omitempty" bson:"time,omitempty"`
	Timetable []*Timetable             `json:"timetable,omitempty" bson:"timetable,omitempty"`
	// ConditionURI is asked with a POST before motion is reported, any
	// answer but 200 suppresses the report.
	ConditionURI string `json:"condition_uri,omitempty" bson:"condition_uri,omitempty"`
	HTTP         *HTTP  `json:"http,omitempty" bson:"http,omitempty"`
	MQTT         *MQTT  `json:"mqtt,omitempty" bson:"mqtt,omitempty"`
	S3           *S3    `json:"s3,omitempty" bson:"s3,omitempty"`
}

// CameraConfig describes a single network camera. The identifier is the key
// of the camera in the streams map.
type CameraConfig struct {
	Id          string          `json:"id,omitempty" bson:"id,omitempty"`
	Name        string          `json:"name" bson:"name"`
	Type        string          `json:"type,omitempty" bson:"type,omitempty"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	URL         string          `json:"url" bson:"url"`
	FallbackURL string          `json:"fallback_url,omitempty" bson:"fallback_url,omitempty"`
	Source      string          `json:"source,omitempty" bson:"source,omitempty"`
	AutoStart   string          `json:"auto_start,omitempty" bson:"auto_start,omitempty"`
	Motion      *MotionSettings `json:"motion,omitempty" bson:"motion,omitempty"`
	Region      *Region         `json:"region,omitempty" bson:"region,omitempty"`
}

// Locators returns the camera URLs in the order they should be tried.
func (c *CameraConfig) Locators() []string {
	var locators []string
	if c.URL != "" {
		locators = append(locators, c.URL)
	}
	if c.FallbackURL != "" && c.FallbackURL != c.URL {
		locators = append(locators, c.FallbackURL)
	}
	return locators
}

// MotionSettings tunes the motion detection pipeline of a camera. The area
// and aspect thresholds depend on the processing resolution, so they are
// configured together with Width and Height.
type MotionSettings struct {
	Width           int     `json:"width,omitempty" bson:"width,omitempty"`
	Height          int     `json:"height,omitempty" bson:"height,omitempty"`
	MinArea         float64 `json:"min_area,omitempty" bson:"min_area,omitempty"`
	MaxArea         float64 `json:"max_area,omitempty" bson:"max_area,omitempty"`
	MinAspect       float64 `json:"min_aspect,omitempty" bson:"min_aspect,omitempty"`
	MaxAspect       float64 `json:"max_aspect,omitempty" bson:"max_aspect,omitempty"`
	History         int     `json:"history,omitempty" bson:"history,omitempty"`
	VarThreshold    float64 `json:"var_threshold,omitempty" bson:"var_threshold,omitempty"`
	DetectShadows   *bool   `json:"detect_shadows,omitempty" bson:"detect_shadows,omitempty"`
	ShadowThreshold float32 `json:"shadow_threshold,omitempty" bson:"shadow_threshold,omitempty"`
	KernelSize      int     `json:"kernel_size,omitempty" bson:"kernel_size,omitempty"`
	CycleDelay      int     `json:"cycle_delay_ms,omitempty" bson:"cycle_delay_ms,omitempty"`
	ReadTimeout     int     `json:"read_timeout_ms,omitempty" bson:"read_timeout_ms,omitempty"`
	RetryBackoff    int     `json:"retry_backoff_ms,omitempty" bson:"retry_backoff_ms,omitempty"`
	StopTimeout     int     `json:"stop_timeout_ms,omitempty" bson:"stop_timeout_ms,omitempty"`
	JPEGQuality     int     `json:"jpeg_quality,omitempty" bson:"jpeg_quality,omitempty"`
	WarmupFrames    int     `json:"warmup_frames,omitempty" bson:"warmup_frames,omitempty"`
}

// ShadowsEnabled reports whether shadow pixels are classified separately.
// Shadow detection is on unless explicitly disabled.
func (m MotionSettings) ShadowsEnabled() bool {
	return m.DetectShadows == nil || *m.DetectShadows
}

// DefaultMotionSettings are tuned for a 640x480 processing resolution.
func DefaultMotionSettings() MotionSettings {
	shadows := true
	return MotionSettings{
		Width:           640,
		Height:          480,
		MinArea:         1500,
		MaxArea:         50000,
		MinAspect:       1.2,
		MaxAspect:       4.0,
		History:         500,
		VarThreshold:    16,
		DetectShadows:   &shadows,
		ShadowThreshold: 200,
		KernelSize:      5,
		CycleDelay:      100,
		ReadTimeout:     100,
		RetryBackoff:    1000,
		StopTimeout:     2000,
		JPEGQuality:     85,
	}
}

// Region specifies the Regions Of Interest (ROI). When polygons are set,
// only motion whose centre falls inside one of them is reported.
type Region struct {
	Name    string    `json:"name" bson:"name"`
	Polygon []Polygon `json:"polygon" bson:"polygon"`
}

// Polygon is a sequence of coordinates (x,y).
type Polygon struct {
	Id          string       `json:"id" bson:"id"`
	Coordinates []Coordinate `json:"coordinates" bson:"coordinates"`
}

// Coordinate belongs to a Polygon.
type Coordinate struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Timetable allows you to set a Time Of Interest (TOI), which limits motion
// alerts to a predefined time interval. Two tracks can be set per weekday,
// expressed in seconds since midnight.
type Timetable struct {
	Start1 int `json:"start1" bson:"start1"`
	End1   int `json:"end1" bson:"end1"`
	Start2 int `json:"start2" bson:"start2"`
	End2   int `json:"end2" bson:"end2"`
}

// HTTP configures the REST API.
type HTTP struct {
	Port      string `json:"port,omitempty" bson:"port,omitempty"`
	Auth      string `json:"auth,omitempty" bson:"auth,omitempty"`
	Username  string `json:"username,omitempty" bson:"username,omitempty"`
	Password  string `json:"password,omitempty" bson:"password,omitempty"`
	JWTSecret string `json:"jwt_secret,omitempty" bson:"jwt_secret,omitempty"`
	WWW       string `json:"www,omitempty" bson:"www,omitempty"`
}

// MQTT contains the broker settings used to publish motion events and to
// receive control commands.
type MQTT struct {
	URI         string `json:"uri,omitempty" bson:"uri,omitempty"`
	Username    string `json:"username,omitempty" bson:"username,omitempty"`
	Password    string `json:"password,omitempty" bson:"password,omitempty"`
	ClientID    string `json:"client_id,omitempty" bson:"client_id,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty" bson:"topic_prefix,omitempty"`
}

// S3 contains the credentials of the bucket motion snapshots are uploaded to.
type S3 struct {
	Endpoint  string `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
	Region    string `json:"region,omitempty" bson:"region,omitempty"`
	Bucket    string `json:"bucket,omitempty" bson:"bucket,omitempty"`
	Publickey string `json:"publickey,omitempty" bson:"publickey,omitempty"`
	Secretkey string `json:"secretkey,omitempty" bson:"secretkey,omitempty"`
	Secure    string `json:"secure,omitempty" bson:"secure,omitempty"`
	Directory string `json:"directory,omitempty" bson:"directory,omitempty"`
}
