// Package media handles uploaded images: format sniffing for blob naming
// and webp thumbnail generation.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// DefaultExtension is used when neither the filename nor the content
	// identifies a format.
	DefaultExtension = "jpg"

	// ThumbnailMaxSize bounds the longest edge of generated thumbnails.
	ThumbnailMaxSize = 256

	// WebPQuality is the encode quality for thumbnails.
	WebPQuality = 70
)

// SniffFormat returns the decoded image format name ("jpeg", "png", "gif",
// "webp") or "" when the content is not a recognized image.
func SniffFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return format
}

// ExtensionFor derives the blob extension for an upload: the filename's
// extension when present, otherwise the sniffed content format, otherwise
// DefaultExtension.
func ExtensionFor(filename string, data []byte) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	switch SniffFormat(data) {
	case "jpeg":
		return "jpg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	case "webp":
		return "webp"
	}
	return DefaultExtension
}

// Thumbnail decodes data, scales it to fit ThumbnailMaxSize on the longest
// edge, and re-encodes it as webp. The source image is returned unscaled
// when it already fits.
func Thumbnail(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > ThumbnailMaxSize || h > ThumbnailMaxSize {
		scale := float64(ThumbnailMaxSize) / float64(max(w, h))
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, src, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG re-encodes an image as JPEG, used when normalizing uploads of
// unknown provenance.
func EncodeJPEG(src image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
