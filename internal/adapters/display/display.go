// Package display reports the size of the attached display.
package display

import (
	"fmt"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// Static reports a fixed size for every display device.
type Static struct {
	Size domain.Size
}

// NewStatic creates a sizer that always reports width x height.
func NewStatic(width, height uint32) Static {
	return Static{Size: domain.Size{Width: width, Height: height}}
}

// DisplaySize implements ports.DisplaySizer.
func (s Static) DisplaySize(uint32) (domain.Size, error) {
	if s.Size.Width == 0 || s.Size.Height == 0 {
		return domain.Size{}, fmt.Errorf("display size %s is empty", s.Size)
	}
	return s.Size, nil
}

// ParseSize parses a WIDTHxHEIGHT string such as "1920x1080".
func ParseSize(s string) (domain.Size, error) {
	var w, h uint32
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return domain.Size{}, fmt.Errorf("invalid display size %q: want WIDTHxHEIGHT", s)
	}
	if w == 0 || h == 0 {
		return domain.Size{}, fmt.Errorf("invalid display size %q: width and height must be positive", s)
	}
	return domain.Size{Width: w, Height: h}, nil
}
