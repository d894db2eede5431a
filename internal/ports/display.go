package ports

import "github.com/bft-labs/rpicamview/internal/domain"

// DisplaySizer reports the geometry of a display device.
type DisplaySizer interface {
	DisplaySize(device uint32) (domain.Size, error)
}
