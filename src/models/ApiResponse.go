package models

type APIResponse struct {
	Data    interface{} `json:"data" bson:"data"`
	Message interface{} `json:"message" bson:"message"`
}

// CameraInfo describes a configured camera without leaking its credentials.
type CameraInfo struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	HasFallback bool   `json:"has_fallback"`
}

// ProbeResult is returned by an RTSP DESCRIBE against a camera.
type ProbeResult struct {
	URL    string  `json:"url"`
	Codec  string  `json:"codec"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	Medias int     `json:"medias"`
}
