// Package capture archives accepted capture frames as WebP objects, on local
// disk or in an Aliyun OSS bucket.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"path"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Archived frames are never larger than the capture resolution.
const (
	maxWidth       = 640
	maxHeight      = 480
	defaultQuality = 80
)

// ErrEmptyFrame is returned for a zero-length upload.
var ErrEmptyFrame = errors.New("empty capture frame")

// Sink stores an encoded object under key.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Archive normalises frames and hands them to a Sink.
type Archive struct {
	sink    Sink
	quality float32
}

func NewArchive(sink Sink, quality float32) *Archive {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return &Archive{sink: sink, quality: quality}
}

// Store encodes frame as WebP and writes it under
// <course>/<date>/<roll>-<uuid>.webp, returning the key.
func (a *Archive) Store(ctx context.Context, courseCode, rollNo, date string, frame []byte) (string, error) {
	data, err := Encode(frame, a.quality)
	if err != nil {
		return "", err
	}
	key := path.Join(safeSegment(courseCode), date, safeSegment(rollNo)+"-"+uuid.NewString()+".webp")
	if err := a.sink.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("store capture %s: %w", key, err)
	}
	return key, nil
}

// Decode reads a JPEG, PNG or WebP frame.
func Decode(frame []byte) (image.Image, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	head := frame
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(http.DetectContentType(head), "webp") {
		return webp.Decode(bytes.NewReader(frame))
	}
	return imaging.Decode(bytes.NewReader(frame), imaging.AutoOrientation(true))
}

// Encode decodes frame, shrinks it to fit the capture resolution and
// re-encodes it as lossy WebP.
func Encode(frame []byte, quality float32) ([]byte, error) {
	img, err := Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > maxWidth || b.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func safeSegment(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
