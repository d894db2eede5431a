package domain

import "fmt"

// State is the lifecycle state of a component.
type State int

const (
	StateInvalid State = iota
	StateLoaded
	StateIdle
	StateExecuting
	StatePause
	StateWaitForResources
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInvalid:
		return "Invalid"
	case StateLoaded:
		return "Loaded"
	case StateIdle:
		return "Idle"
	case StateExecuting:
		return "Executing"
	case StatePause:
		return "Pause"
	case StateWaitForResources:
		return "WaitForResources"
	default:
		return "Unknown"
	}
}

// CanTransition reports whether a component may move from s to next.
// Startup walks Loaded -> Idle -> Executing and teardown walks the exact
// reverse, one step at a time.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateLoaded:
		return next == StateIdle
	case StateIdle:
		return next == StateExecuting || next == StateLoaded
	case StateExecuting:
		return next == StateIdle
	default:
		return false
	}
}

// Direction is the data direction of a port.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
)

func (d Direction) String() string {
	if d == DirInput {
		return "input"
	}
	return "output"
}

// PortDomain is the category of data a port carries.
type PortDomain int

const (
	DomainAudio PortDomain = iota
	DomainVideo
	DomainImage
	DomainOther
)

// PortDomains lists every category probed when discovering ports.
var PortDomains = []PortDomain{DomainAudio, DomainVideo, DomainImage, DomainOther}

func (d PortDomain) String() string {
	switch d {
	case DomainAudio:
		return "audio"
	case DomainVideo:
		return "video"
	case DomainImage:
		return "image"
	case DomainOther:
		return "other"
	default:
		return "unknown"
	}
}

// PortRange is a contiguous run of port indices of one domain.
type PortRange struct {
	Start uint32
	Count uint32
}

// Indices expands the range into port indices.
func (r PortRange) Indices() []uint32 {
	out := make([]uint32, 0, r.Count)
	for i := r.Start; i < r.Start+r.Count; i++ {
		out = append(out, i)
	}
	return out
}

// Q16 is an unsigned 16.16 fixed point value, used for frame rates.
type Q16 uint32

// FramerateQ16 encodes whole frames per second as Q16.
func FramerateQ16(fps uint32) Q16 { return Q16(fps << 16) }

// Float returns the decoded value.
func (q Q16) Float() float64 { return float64(q) / 65536 }

// Compression is a video/image coding type.
type Compression uint32

const (
	CompressionUnused Compression = iota
	CompressionAutoDetect
	CompressionMPEG2
	CompressionH263
	CompressionMPEG4
	CompressionWMV
	CompressionRV
	CompressionAVC
	CompressionMJPEG
)

func (c Compression) String() string {
	switch c {
	case CompressionUnused:
		return "not used"
	case CompressionAutoDetect:
		return "autodetect"
	case CompressionMPEG2:
		return "MPEG2"
	case CompressionH263:
		return "H.263"
	case CompressionMPEG4:
		return "MPEG4"
	case CompressionWMV:
		return "Windows Media Video"
	case CompressionRV:
		return "RealVideo"
	case CompressionAVC:
		return "H.264"
	case CompressionMJPEG:
		return "MJPEG"
	default:
		return "unknown"
	}
}

// ColorFormat is a raw pixel layout.
type ColorFormat uint32

const (
	ColorUnused                 ColorFormat = 0
	ColorYUV420PackedPlanar     ColorFormat = 20
	ColorYUV420PackedSemiPlanar ColorFormat = 39
)

func (c ColorFormat) String() string {
	switch c {
	case ColorUnused:
		return "not used"
	case ColorYUV420PackedPlanar:
		return "YUV420PackedPlanar"
	case ColorYUV420PackedSemiPlanar:
		return "YUV420PackedSemiPlanar"
	default:
		return fmt.Sprintf("format type 0x%08x", uint32(c))
	}
}

// VideoFormat is the video-domain part of a port descriptor.
type VideoFormat struct {
	Width            uint32
	Height           uint32
	Stride           int32
	SliceHeight      uint32
	Bitrate          uint32
	Framerate        Q16
	ErrorConcealment bool
	Compression      Compression
	Color            ColorFormat
}

// ImageFormat is the image-domain part of a port descriptor.
type ImageFormat struct {
	Width            uint32
	Height           uint32
	Stride           int32
	SliceHeight      uint32
	ErrorConcealment bool
	Compression      Compression
	Color            ColorFormat
}

// PortDescriptor describes one port of a component.
type PortDescriptor struct {
	Index             uint32
	Direction         Direction
	BufferCountActual uint32
	BufferCountMin    uint32
	BufferSize        uint32
	BufferAlignment   uint32
	Enabled           bool
	Populated         bool
	Domain            PortDomain
	Video             VideoFormat
	Image             ImageFormat
}

// Frame returns width and height for video or image ports.
func (d PortDescriptor) Frame() (uint32, uint32) {
	if d.Domain == DomainImage {
		return d.Image.Width, d.Image.Height
	}
	return d.Video.Width, d.Video.Height
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Component names and the fixed port layout of the preview graph.
const (
	ComponentCamera   = "camera"
	ComponentRender   = "video_render"
	ComponentNullSink = "null_sink"

	CameraInputPort   uint32 = 73
	CameraPreviewPort uint32 = 70
	CameraVideoPort   uint32 = 71
	RenderInputPort   uint32 = 90
	NullSinkInputPort uint32 = 240

	// AllPorts addresses every port of a component in a setting.
	AllPorts uint32 = 0xFFFFFFFF
)
