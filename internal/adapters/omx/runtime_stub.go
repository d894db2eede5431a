//go:build !omx

package omx

import (
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// New reports ErrUnsupported in builds without the omx tag.
func New(logger ports.Logger) (ports.Runtime, error) {
	return nil, ErrUnsupported
}

// Display reports ErrUnsupported in builds without the omx tag.
type Display struct{}

// DisplaySize implements ports.DisplaySizer.
func (Display) DisplaySize(uint32) (domain.Size, error) {
	return domain.Size{}, ErrUnsupported
}
