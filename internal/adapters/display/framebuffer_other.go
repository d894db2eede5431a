//go:build !linux

package display

import (
	"errors"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// Framebuffer reads the visible resolution of /dev/fbN. It is only
// available on Linux.
type Framebuffer struct{}

// DisplaySize implements ports.DisplaySizer.
func (Framebuffer) DisplaySize(uint32) (domain.Size, error) {
	return domain.Size{}, errors.New("framebuffer displays are only supported on linux")
}
