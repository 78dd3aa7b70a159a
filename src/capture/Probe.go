package capture

import (
	"context"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// Probe sends a DESCRIBE to an RTSP camera and reports the video codec,
// resolution and frame rate announced in the SDP.
func Probe(ctx context.Context, rawURL string) (models.ProbeResult, error) {
	result := models.ProbeResult{URL: rawURL}

	u, err := base.ParseURL(rawURL)
	if err != nil {
		return result, errors.Wrap(err, "capture.Probe(): invalid url")
	}

	type outcome struct {
		result models.ProbeResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := describe(u, result)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return result, ctx.Err()
	}
}

func describe(u *base.URL, result models.ProbeResult) (models.ProbeResult, error) {
	transport := gortsplib.TransportTCP
	client := gortsplib.Client{
		Transport:    &transport,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	err := client.Start(u.Scheme, u.Host)
	if err != nil {
		log.Log.Debug("capture.Probe(Start): " + err.Error())
		return result, errors.Wrap(ErrSourceUnavailable, err.Error())
	}
	defer client.Close()

	desc, _, err := client.Describe(u)
	if err != nil {
		log.Log.Debug("capture.Probe(Describe): " + err.Error())
		return result, errors.Wrap(ErrSourceUnavailable, err.Error())
	}
	result.Medias = len(desc.Medias)

	var formaH264 *format.H264
	if media := desc.FindFormat(&formaH264); media != nil {
		result.Codec = formaH264.Codec()
		var sps h264.SPS
		if err := sps.Unmarshal(formaH264.SPS); err == nil {
			result.Width = sps.Width()
			result.Height = sps.Height()
			result.FPS = sps.FPS()
		} else {
			// The SPS might only arrive in band.
			log.Log.Debug("capture.Probe(H264): " + err.Error())
		}
		return result, nil
	}

	var formaH265 *format.H265
	if media := desc.FindFormat(&formaH265); media != nil {
		result.Codec = formaH265.Codec()
		var sps h265.SPS
		if err := sps.Unmarshal(formaH265.SPS); err == nil {
			result.Width = sps.Width()
			result.Height = sps.Height()
			result.FPS = sps.FPS()
		} else {
			log.Log.Debug("capture.Probe(H265): " + err.Error())
		}
		return result, nil
	}

	return result, errors.New("capture.Probe(): no H264 or H265 video media found")
}
