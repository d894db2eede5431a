//go:build linux

package display

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/bft-labs/rpicamview/internal/domain"
)

const fbioGetVScreenInfo = 0x4600

// varScreenInfo mirrors struct fb_var_screeninfo; only the visible
// resolution is read.
type varScreenInfo struct {
	XRes uint32
	YRes uint32
	_    [38]uint32
}

// Framebuffer reads the visible resolution of /dev/fbN.
type Framebuffer struct{}

// DisplaySize implements ports.DisplaySizer.
func (Framebuffer) DisplaySize(device uint32) (domain.Size, error) {
	path := fmt.Sprintf("/dev/fb%d", device)
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return domain.Size{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var info varScreenInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), fbioGetVScreenInfo, uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return domain.Size{}, fmt.Errorf("read screen info of %s: %w", path, errno)
	}
	if info.XRes == 0 || info.YRes == 0 {
		return domain.Size{}, fmt.Errorf("%s reports an empty resolution", path)
	}
	return domain.Size{Width: info.XRes, Height: info.YRes}, nil
}
