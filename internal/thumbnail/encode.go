package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"bananalab/internal/blob"
)

// Format is an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 80

// ParseFormat converts a configuration value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Ext returns the file extension of f, without the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// Encoded is a finished thumbnail.
type Encoded struct {
	PageID      string
	Format      Format
	Width       int
	Height      int
	Data        []byte
	Fingerprint uint64
	Placeholder bool
}

// MIME returns the media type of the encoded data.
func (e *Encoded) MIME() string { return e.Format.MIME() }

// DataURI renders the thumbnail as a base64 data URI.
func (e *Encoded) DataURI() string {
	return blob.EncodeDataURI(e.MIME(), e.Data)
}

// Size returns the encoded size in bytes.
func (e *Encoded) Size() int { return len(e.Data) }

// Encode serializes img. quality applies to JPEG only; values outside
// 1..100 use DefaultQuality.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	default:
		if quality < 1 || quality > 100 {
			quality = DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
