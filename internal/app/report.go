package app

import (
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// logPort writes a port descriptor snapshot to the diagnostic log.
func logPort(logger ports.Logger, title string, component string, def domain.PortDescriptor) {
	enabled := "disabled"
	if def.Enabled {
		enabled = "enabled"
	}
	fields := []ports.Field{
		ports.String("component", component),
		ports.Uint32("port", def.Index),
		ports.String("direction", def.Direction.String()),
		ports.String("state", enabled),
		ports.Uint32("buffers_wanted", def.BufferCountActual),
		ports.Uint32("buffers_needed", def.BufferCountMin),
		ports.Uint32("buffer_size", def.BufferSize),
		ports.Bool("populated", def.Populated),
		ports.Uint32("alignment", def.BufferAlignment),
		ports.String("domain", def.Domain.String()),
	}

	switch def.Domain {
	case domain.DomainVideo:
		v := def.Video
		fields = append(fields,
			ports.Uint32("width", v.Width),
			ports.Uint32("height", v.Height),
			ports.Int("stride", int(v.Stride)),
			ports.Uint32("slice_height", v.SliceHeight),
			ports.Uint32("bitrate", v.Bitrate),
			ports.Float64("framerate", v.Framerate.Float()),
			ports.Bool("error_hiding", v.ErrorConcealment),
			ports.String("codec", v.Compression.String()),
			ports.String("color", v.Color.String()),
		)
	case domain.DomainImage:
		i := def.Image
		fields = append(fields,
			ports.Uint32("width", i.Width),
			ports.Uint32("height", i.Height),
			ports.Int("stride", int(i.Stride)),
			ports.Uint32("slice_height", i.SliceHeight),
			ports.Bool("error_hiding", i.ErrorConcealment),
			ports.String("codec", i.Compression.String()),
			ports.String("color", i.Color.String()),
		)
	}
	logger.Info(title, fields...)
}
