package module

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	part.Write(data)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("PUT", "/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[UploadField][0]
}

func TestReadUpload(t *testing.T) {
	data := pngBytes(t, 40, 20)
	body, img, err := ReadUpload(fileHeader(t, "cat.png", "image/png", data))
	require.NoError(t, err)
	assert.Equal(t, data, body)
	assert.Equal(t, "cat.png", img.Name)
	assert.Equal(t, int64(len(data)), img.Size)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.NotEmpty(t, img.Key)
}

func TestReadUploadMimeOnly(t *testing.T) {
	// declared type wins, content is never sniffed
	_, img, err := ReadUpload(fileHeader(t, "fake.jpg", "image/jpeg", []byte("not an image")))
	require.NoError(t, err)
	assert.Equal(t, 0, img.Width)

	_, _, err = ReadUpload(fileHeader(t, "doc.pdf", "application/pdf", pngBytes(t, 2, 2)))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestPreview(t *testing.T) {
	out, err := Preview(pngBytes(t, 400, 100), 100)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())

	_, err = Preview([]byte("garbage"), 100)
	assert.Error(t, err)
}

// pngHeader a valid 1x1 png whose IHDR declares width x height
func pngHeader(t *testing.T, width, height uint32) []byte {
	data := pngBytes(t, 1, 1)
	ihdr := data[12:29]
	binary.BigEndian.PutUint32(ihdr[4:8], width)
	binary.BigEndian.PutUint32(ihdr[8:12], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(ihdr))
	return data
}

func TestPreviewRejectsHugeCanvas(t *testing.T) {
	_, err := Preview(pngHeader(t, 20000, 20000), 100)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	w, h := probeSize(pngHeader(t, 20000, 20000))
	assert.Equal(t, 20000, w)
	assert.Equal(t, 20000, h)
}

func TestPreviewDimensions(t *testing.T) {
	w, h := previewDimensions(10, 10, 100)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
	w, h = previewDimensions(100, 1000, 100)
	assert.Equal(t, 10, w)
	assert.Equal(t, 100, h)
	w, h = previewDimensions(10000, 1, 100)
	assert.Equal(t, 100, w)
	assert.Equal(t, 1, h)
}
