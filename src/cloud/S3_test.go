package cloud

import (
	"testing"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotName(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "front/1700000000_front_2.jpg", SnapshotName("", "front", ts, 2))
	assert.Equal(t, "agents/front/1700000000_front_0.jpg", SnapshotName("agents", "front", ts, 0))
}

func TestNewS3NotConfigured(t *testing.T) {
	_, err := NewS3(&models.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewS3(&models.Config{S3: &models.S3{Bucket: "snapshots"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3(t *testing.T) {
	s3, err := NewS3(&models.Config{
		Key: "agent-1",
		S3: &models.S3{
			Endpoint:  "localhost:9000",
			Bucket:    "snapshots",
			Publickey: "access",
			Secretkey: "secret",
			Secure:    "false",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "snapshots", s3.bucket)
	assert.Equal(t, "agent-1", s3.key)
}
