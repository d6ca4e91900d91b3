package surface

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// Frame is one painted page.
type Frame struct {
	Image    image.Image
	Revision uint64
}

// FrameSink receives painted frames.
type FrameSink interface {
	Present(frame Frame) error
}

// PNGSink writes every frame to the same PNG file, replacing it atomically.
type PNGSink struct {
	path string
}

// NewPNGSink creates a sink writing to path.
func NewPNGSink(path string) *PNGSink {
	return &PNGSink{path: path}
}

// Path returns the output file.
func (s *PNGSink) Path() string {
	return s.path
}

// Present encodes the frame next to the target and renames it into place.
func (s *PNGSink) Present(frame Frame) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".mdr-frame-*.png")
	if err != nil {
		return fmt.Errorf("creating frame file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := png.Encode(tmp, frame.Image); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing frame: %w", err)
	}
	return nil
}

// MemorySink keeps the latest frame in memory.
type MemorySink struct {
	mu     sync.Mutex
	frame  Frame
	frames int
}

// Present stores the frame.
func (s *MemorySink) Present(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.frames++
	return nil
}

// Latest returns the last frame and how many frames were presented.
func (s *MemorySink) Latest() (Frame, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.frames
}
