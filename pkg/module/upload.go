package module

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

const (
	UploadField       = "file"
	DefaultPreviewDim = 512
	imageKeyLength    = 32
	// MaxPreviewPixels 40 megapixels, larger canvases are not decoded
	MaxPreviewPixels = 40 * 1000 * 1000
)

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image too large for preview")
)

// ReadUpload accept one multipart file, only the declared mime type is checked
func ReadUpload(header *multipart.FileHeader) ([]byte, models.UploadedImage, error) {
	contentType := header.Header.Get("Content-Type")
	if !IsImageType(contentType) {
		return nil, models.UploadedImage{}, fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}
	f, err := header.Open()
	if err != nil {
		return nil, models.UploadedImage{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.UploadedImage{}, err
	}
	img := models.UploadedImage{
		Key:         fmt.Sprintf("inputs/%s", utils.RandStr(imageKeyLength)),
		Name:        header.Filename,
		Size:        int64(len(data)),
		ContentType: contentType,
		UploadedAt:  time.Now(),
	}
	img.Width, img.Height = probeSize(data)
	return data, img, nil
}

// IsImageType mime type starts with image/
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// probeSize best effort, 0x0 when the format is unknown
func probeSize(data []byte) (int, int) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logrus.Debugf("probe image size fail err=%s", err.Error())
		return 0, 0
	}
	logrus.Debugf("probe image format=%s %dx%d", format, cfg.Width, cfg.Height)
	return cfg.Width, cfg.Height
}

// Preview downscaled png, longest side at most maxDim
func Preview(data []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultPreviewDim
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPreviewPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := src.Bounds()
	width, height := previewDimensions(bounds.Dx(), bounds.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func previewDimensions(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width >= height {
		h := height * maxDim / width
		if h < 1 {
			h = 1
		}
		return maxDim, h
	}
	w := width * maxDim / height
	if w < 1 {
		w = 1
	}
	return w, maxDim
}
