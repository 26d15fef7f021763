// Package imagedata handles the image payloads exchanged with front-ends:
// data URLs, MIME detection and a cheap header probe of uploaded files.
package imagedata

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrInvalidDataURL = errors.New("invalid data url")
	ErrNotImage       = errors.New("not a supported image")
)

// Info is what Probe learns from the image header.
type Info struct {
	Format   string
	MIMEType string
	Width    int
	Height   int
}

// ParseDataURL splits "data:<mime>;base64,<payload>". A value without the
// "data:" scheme is treated as bare base64 with fallbackMime.
func ParseDataURL(value, fallbackMime string) (mimeType string, payload []byte, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil, ErrInvalidDataURL
	}

	mimeType = fallbackMime
	encoded := value
	if rest, ok := strings.CutPrefix(value, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, ErrInvalidDataURL
		}
		if m, _, _ := strings.Cut(meta, ";"); strings.TrimSpace(m) != "" {
			mimeType = strings.TrimSpace(m)
		}
		encoded = data
	}

	payload, err = base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(payload) == 0 {
		return "", nil, ErrInvalidDataURL
	}
	return mimeType, payload, nil
}

func EncodeDataURL(mimeType string, payload []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(payload))
}

// DetectMIME prefers the declared type unless it is missing or generic, then
// sniffs the bytes.
func DetectMIME(declared string, data []byte) string {
	mimeType := cleanMIME(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = cleanMIME(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		if info, err := Probe(data); err == nil {
			mimeType = info.MIMEType
		}
	}
	return mimeType
}

// Probe decodes only the image header. It rejects anything no registered
// decoder understands.
func Probe(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrNotImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Info{
		Format:   format,
		MIMEType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

func cleanMIME(value string) string {
	value, _, _ = strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(value))
}
