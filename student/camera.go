package student

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrStreamClosed is returned when capturing from a released stream.
var ErrStreamClosed = errors.New("camera stream closed")

// FileCamera serves a still image from disk as its live feed. Frames are
// cropped and scaled to the requested resolution.
type FileCamera struct {
	Path string
}

func (c FileCamera) Open(ctx context.Context, width, height int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	img, err := imaging.Open(c.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}
	return &imageStream{frame: imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)}, nil
}

// ImageCamera serves an in-memory image.
type ImageCamera struct {
	Image image.Image
}

func (c ImageCamera) Open(ctx context.Context, width, height int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Image == nil {
		return nil, errors.New("no camera image")
	}
	return &imageStream{frame: imaging.Fill(c.Image, width, height, imaging.Center, imaging.Lanczos)}, nil
}

type imageStream struct {
	mu     sync.Mutex
	frame  *image.NRGBA
	closed bool
}

func (s *imageStream) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	return imaging.Clone(s.frame), nil
}

func (s *imageStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
