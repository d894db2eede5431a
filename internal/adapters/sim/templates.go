package sim

import "github.com/bft-labs/rpicamview/internal/domain"

// portTemplate is the default descriptor of a freshly created port.
type portTemplate struct {
	def domain.PortDescriptor
}

func videoPort(index uint32, dir domain.Direction, w, h uint32) portTemplate {
	def := domain.PortDescriptor{
		Index:             index,
		Direction:         dir,
		BufferCountActual: 1,
		BufferCountMin:    1,
		BufferAlignment:   16,
		Enabled:           true,
		Domain:            domain.DomainVideo,
		Video: domain.VideoFormat{
			Width:       w,
			Height:      h,
			Stride:      int32(w),
			Compression: domain.CompressionUnused,
			Color:       domain.ColorYUV420PackedPlanar,
		},
	}
	def.Video.SliceHeight = align16(h)
	def.BufferSize = frameSize(def.Video.Stride, def.Video.SliceHeight)
	return portTemplate{def: def}
}

func imagePort(index uint32, dir domain.Direction, w, h uint32) portTemplate {
	def := domain.PortDescriptor{
		Index:             index,
		Direction:         dir,
		BufferCountActual: 1,
		BufferCountMin:    1,
		BufferAlignment:   16,
		Enabled:           true,
		Domain:            domain.DomainImage,
		Image: domain.ImageFormat{
			Width:       w,
			Height:      h,
			Stride:      int32(w),
			SliceHeight: align16(h),
			Compression: domain.CompressionUnused,
			Color:       domain.ColorYUV420PackedPlanar,
		},
	}
	def.BufferSize = frameSize(def.Image.Stride, def.Image.SliceHeight)
	return portTemplate{def: def}
}

func plainPort(d domain.PortDomain, index uint32, dir domain.Direction, size uint32) portTemplate {
	return portTemplate{def: domain.PortDescriptor{
		Index:             index,
		Direction:         dir,
		BufferCountActual: 1,
		BufferCountMin:    1,
		BufferSize:        size,
		BufferAlignment:   4,
		Enabled:           true,
		Domain:            d,
	}}
}

// templates describes the components the simulator knows about.
var templates = map[string][]portTemplate{
	domain.ComponentCamera: {
		videoPort(domain.CameraPreviewPort, domain.DirOutput, 640, 480),
		videoPort(domain.CameraVideoPort, domain.DirOutput, 640, 480),
		imagePort(72, domain.DirOutput, 640, 480),
		plainPort(domain.DomainOther, domain.CameraInputPort, domain.DirInput, 32),
	},
	domain.ComponentRender: {
		videoPort(domain.RenderInputPort, domain.DirInput, 160, 64),
	},
	domain.ComponentNullSink: {
		videoPort(domain.NullSinkInputPort, domain.DirInput, 160, 64),
		imagePort(241, domain.DirInput, 160, 64),
		plainPort(domain.DomainAudio, 242, domain.DirInput, 2048),
	},
}

func align16(v uint32) uint32 { return (v + 15) &^ 15 }

// frameSize is the size of one planar 4:2:0 frame.
func frameSize(stride int32, sliceHeight uint32) uint32 {
	if stride < 0 {
		stride = -stride
	}
	return uint32(stride) * sliceHeight * 3 / 2
}
