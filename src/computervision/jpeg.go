package computervision

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const DefaultJPEGQuality = 85

// EncodeJPEG compresses a frame for transport.
func EncodeJPEG(frame *models.Frame, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	mat, err := ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buffer, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, errors.Wrap(err, "computervision.jpeg.EncodeJPEG()")
	}
	defer buffer.Close()

	encoded := make([]byte, buffer.Len())
	copy(encoded, buffer.GetBytes())
	return encoded, nil
}

// Placeholder renders a dark JPEG with a centred message, served when a
// camera has no frame to show.
func Placeholder(width int, height int, reason string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 32, G: 32, B: 32, A: 255}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
	}
	textWidth := drawer.MeasureString(reason).Round()
	x := (width - textWidth) / 2
	if x < 0 {
		x = 0
	}
	drawer.Dot = fixed.P(x, height/2+face.Ascent/2)
	drawer.DrawString(reason)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: DefaultJPEGQuality}); err != nil {
		return nil, errors.Wrap(err, "computervision.jpeg.Placeholder()")
	}
	return buf.Bytes(), nil
}
