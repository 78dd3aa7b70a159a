package cloud

import (
	"bytes"
	"path"
	"strconv"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/minio/minio-go/v6"
	"github.com/pkg/errors"
)

var ErrNotConfigured = errors.New("no s3 credentials found")

// S3 uploads motion snapshots to an S3 compatible bucket.
type S3 struct {
	client    *minio.Client
	bucket    string
	directory string
	key       string
	publickey string
}

// NewS3 returns ErrNotConfigured when the configuration has no bucket or
// credentials, snapshot uploads are disabled then.
func NewS3(config *models.Config) (*S3, error) {
	if config.S3 == nil || config.S3.Bucket == "" {
		return nil, ErrNotConfigured
	}
	settings := config.S3
	if settings.Publickey == "" || settings.Secretkey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	secure := settings.Secure != "false"
	client, err := minio.NewWithRegion(endpoint, settings.Publickey, settings.Secretkey, secure, settings.Region)
	if err != nil {
		log.Log.Error("cloud.S3.NewS3(): " + err.Error())
		return nil, errors.Wrap(err, "cloud.S3.NewS3()")
	}
	log.Log.Info("cloud.S3.NewS3(): uploading snapshots to " + endpoint + "/" + settings.Bucket)

	return &S3{
		client:    client,
		bucket:    settings.Bucket,
		directory: settings.Directory,
		key:       config.Key,
		publickey: settings.Publickey,
	}, nil
}

// SnapshotName is <directory>/<camera>/<timestamp>_<camera>_<boxes>.jpg
func SnapshotName(directory string, cameraId string, timestamp time.Time, boxes int) string {
	fileName := strconv.FormatInt(timestamp.Unix(), 10) + "_" + cameraId + "_" + strconv.Itoa(boxes) + ".jpg"
	return path.Join(directory, cameraId, fileName)
}

// UploadSnapshot stores an encoded JPEG and returns its object name.
func (s *S3) UploadSnapshot(cameraId string, timestamp time.Time, boxes int, jpeg []byte) (string, error) {
	name := SnapshotName(s.directory, cameraId, timestamp, boxes)
	log.Log.Info("cloud.S3.UploadSnapshot(): upload started for " + name)

	n, err := s.client.PutObject(s.bucket,
		name,
		bytes.NewReader(jpeg),
		int64(len(jpeg)),
		minio.PutObjectOptions{
			ContentType: "image/jpeg",
			UserMetadata: map[string]string{
				"event-timestamp":       strconv.FormatInt(timestamp.Unix(), 10),
				"event-instancename":    cameraId,
				"event-numberofchanges": strconv.Itoa(boxes),
				"productid":             s.key,
				"publickey":             s.publickey,
			},
		})
	if err != nil {
		log.Log.Error("cloud.S3.UploadSnapshot(): uploading failed, " + err.Error())
		return "", errors.Wrap(err, "cloud.S3.UploadSnapshot()")
	}
	log.Log.Info("cloud.S3.UploadSnapshot(): upload finished, " + strconv.FormatInt(n, 10) + " bytes")
	return name, nil
}
