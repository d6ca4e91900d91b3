package surface

import (
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

const bodySize = 16.0

// fonts holds the faces used on the surface, all from the Go font family.
type fonts struct {
	sources  []*text.FontSource
	body     text.Face
	bold     text.Face
	mono     text.Face
	headings [6]text.Face
}

func loadFonts() (*fonts, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading regular font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		regular.Close() //nolint:errcheck
		return nil, fmt.Errorf("loading bold font: %w", err)
	}
	mono, err := text.NewFontSource(gomono.TTF)
	if err != nil {
		regular.Close() //nolint:errcheck
		bold.Close()    //nolint:errcheck
		return nil, fmt.Errorf("loading mono font: %w", err)
	}

	f := &fonts{
		sources: []*text.FontSource{regular, bold, mono},
		body:    regular.Face(bodySize),
		bold:    bold.Face(bodySize),
		mono:    mono.Face(bodySize - 2),
	}
	sizes := [6]float64{30, 25, 21, 18, 16, 15}
	for i, size := range sizes {
		f.headings[i] = bold.Face(size)
	}
	return f, nil
}

func (f *fonts) heading(level int) text.Face {
	return f.headings[min(max(level, 1), 6)-1]
}

func (f *fonts) close() {
	for _, s := range f.sources {
		s.Close() //nolint:errcheck
	}
}
