package domain

import (
	"fmt"
	"strings"
)

// Index names a parameter or config structure of the runtime.
type Index int

const (
	IndexUnknown Index = iota
	IndexCameraDeviceNumber
	IndexRequestCallback
	IndexFramerate
	IndexSharpness
	IndexContrast
	IndexSaturation
	IndexBrightness
	IndexExposureValue
	IndexFrameStabilisation
	IndexWhiteBalance
	IndexImageFilter
	IndexMirror
	IndexDisplayRegion
	IndexPortCapturing
)

var indexNames = map[Index]string{
	IndexUnknown:            "Unknown",
	IndexCameraDeviceNumber: "CameraDeviceNumber",
	IndexRequestCallback:    "RequestCallback",
	IndexFramerate:          "Framerate",
	IndexSharpness:          "Sharpness",
	IndexContrast:           "Contrast",
	IndexSaturation:         "Saturation",
	IndexBrightness:         "Brightness",
	IndexExposureValue:      "ExposureValue",
	IndexFrameStabilisation: "FrameStabilisation",
	IndexWhiteBalance:       "WhiteBalance",
	IndexImageFilter:        "ImageFilter",
	IndexMirror:             "Mirror",
	IndexDisplayRegion:      "DisplayRegion",
	IndexPortCapturing:      "PortCapturing",
}

func (i Index) String() string {
	if n, ok := indexNames[i]; ok {
		return n
	}
	return fmt.Sprintf("Index(%d)", int(i))
}

// Setting is a typed value written with SetConfig or SetParameter.
type Setting interface {
	Index() Index
	Port() uint32
}

// CameraDevice selects the physical camera.
type CameraDevice struct {
	PortIndex uint32
	Device    uint32
}

func (s CameraDevice) Index() Index { return IndexCameraDeviceNumber }
func (s CameraDevice) Port() uint32 { return s.PortIndex }

// RequestCallback asks the component to emit a change event for Watched.
type RequestCallback struct {
	PortIndex uint32
	Watched   Index
	Enable    bool
}

func (s RequestCallback) Index() Index { return IndexRequestCallback }
func (s RequestCallback) Port() uint32 { return s.PortIndex }

// Framerate is the per-port encode frame rate.
type Framerate struct {
	PortIndex uint32
	Rate      Q16
}

func (s Framerate) Index() Index { return IndexFramerate }
func (s Framerate) Port() uint32 { return s.PortIndex }

// Sharpness ranges -100..100.
type Sharpness struct {
	PortIndex uint32
	Value     int32
}

func (s Sharpness) Index() Index { return IndexSharpness }
func (s Sharpness) Port() uint32 { return s.PortIndex }

// Contrast ranges -100..100.
type Contrast struct {
	PortIndex uint32
	Value     int32
}

func (s Contrast) Index() Index { return IndexContrast }
func (s Contrast) Port() uint32 { return s.PortIndex }

// Saturation ranges -100..100.
type Saturation struct {
	PortIndex uint32
	Value     int32
}

func (s Saturation) Index() Index { return IndexSaturation }
func (s Saturation) Port() uint32 { return s.PortIndex }

// Brightness ranges 0..100.
type Brightness struct {
	PortIndex uint32
	Value     uint32
}

func (s Brightness) Index() Index { return IndexBrightness }
func (s Brightness) Port() uint32 { return s.PortIndex }

// ExposureValue controls exposure compensation and sensitivity.
// Compensation is in sixths of a stop.
type ExposureValue struct {
	PortIndex       uint32
	Compensation    int32
	Sensitivity     uint32
	AutoSensitivity bool
}

func (s ExposureValue) Index() Index { return IndexExposureValue }
func (s ExposureValue) Port() uint32 { return s.PortIndex }

// FrameStabilisation toggles image stabilisation.
type FrameStabilisation struct {
	PortIndex uint32
	Enabled   bool
}

func (s FrameStabilisation) Index() Index { return IndexFrameStabilisation }
func (s FrameStabilisation) Port() uint32 { return s.PortIndex }

// WhiteBalance selects the white balance mode.
type WhiteBalance struct {
	PortIndex uint32
	Mode      WhiteBalanceMode
}

func (s WhiteBalance) Index() Index { return IndexWhiteBalance }
func (s WhiteBalance) Port() uint32 { return s.PortIndex }

// ImageFilter selects the image filter.
type ImageFilter struct {
	PortIndex uint32
	Filter    ImageFilterType
}

func (s ImageFilter) Index() Index { return IndexImageFilter }
func (s ImageFilter) Port() uint32 { return s.PortIndex }

// Mirror flips the output of a port.
type Mirror struct {
	PortIndex uint32
	Mode      MirrorMode
}

func (s Mirror) Index() Index { return IndexMirror }
func (s Mirror) Port() uint32 { return s.PortIndex }

// DisplayMode is how the renderer scales into its destination.
type DisplayMode int

const (
	DisplayModeFill DisplayMode = iota
	DisplayModeLetterbox
)

// Rect is a destination rectangle on the display.
type Rect struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// DisplayRegion places the renderer output on a display.
type DisplayRegion struct {
	PortIndex  uint32
	Display    uint32
	Fullscreen bool
	Mode       DisplayMode
	Dest       Rect
}

func (s DisplayRegion) Index() Index { return IndexDisplayRegion }
func (s DisplayRegion) Port() uint32 { return s.PortIndex }

// PortCapturing switches capture on a camera output port.
type PortCapturing struct {
	PortIndex uint32
	Enabled   bool
}

func (s PortCapturing) Index() Index { return IndexPortCapturing }
func (s PortCapturing) Port() uint32 { return s.PortIndex }

// WhiteBalanceMode enumerates the supported white balance controls.
type WhiteBalanceMode int

const (
	WhiteBalanceOff WhiteBalanceMode = iota
	WhiteBalanceAuto
	WhiteBalanceSunLight
	WhiteBalanceCloudy
	WhiteBalanceShade
	WhiteBalanceTungsten
	WhiteBalanceFluorescent
	WhiteBalanceIncandescent
	WhiteBalanceFlash
	WhiteBalanceHorizon
)

var whiteBalanceNames = []string{"off", "auto", "sunlight", "cloudy", "shade", "tungsten", "fluorescent", "incandescent", "flash", "horizon"}

func (m WhiteBalanceMode) String() string {
	if int(m) >= 0 && int(m) < len(whiteBalanceNames) {
		return whiteBalanceNames[m]
	}
	return "unknown"
}

// ParseWhiteBalance parses a white balance mode name.
func ParseWhiteBalance(s string) (WhiteBalanceMode, error) {
	for i, n := range whiteBalanceNames {
		if strings.EqualFold(s, n) {
			return WhiteBalanceMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown white balance mode %q", s)
}

// ImageFilterType enumerates the supported image filters.
type ImageFilterType int

const (
	ImageFilterNone ImageFilterType = iota
	ImageFilterNoise
	ImageFilterEmboss
	ImageFilterNegative
	ImageFilterSketch
	ImageFilterOilPaint
	ImageFilterHatch
	ImageFilterGpen
	ImageFilterAntialias
	ImageFilterDeRing
	ImageFilterSolarize
)

var imageFilterNames = []string{"none", "noise", "emboss", "negative", "sketch", "oilpaint", "hatch", "gpen", "antialias", "dering", "solarize"}

func (f ImageFilterType) String() string {
	if int(f) >= 0 && int(f) < len(imageFilterNames) {
		return imageFilterNames[f]
	}
	return "unknown"
}

// ParseImageFilter parses an image filter name.
func ParseImageFilter(s string) (ImageFilterType, error) {
	for i, n := range imageFilterNames {
		if strings.EqualFold(s, n) {
			return ImageFilterType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown image filter %q", s)
}

// MirrorMode is the flip applied to a port.
type MirrorMode int

const (
	MirrorNone MirrorMode = iota
	MirrorVertical
	MirrorHorizontal
	MirrorBoth
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorNone:
		return "none"
	case MirrorVertical:
		return "vertical"
	case MirrorHorizontal:
		return "horizontal"
	case MirrorBoth:
		return "both"
	default:
		return "unknown"
	}
}

// MirrorFromFlip derives the mirror mode from horizontal/vertical flips.
func MirrorFromFlip(horizontal, vertical bool) MirrorMode {
	switch {
	case horizontal && vertical:
		return MirrorBoth
	case horizontal:
		return MirrorHorizontal
	case vertical:
		return MirrorVertical
	default:
		return MirrorNone
	}
}

// CameraTuning is the image quality configuration of the camera.
type CameraTuning struct {
	Sharpness          int32
	Contrast           int32
	Saturation         int32
	Brightness         uint32
	EVCompensation     int32
	ISO                uint32
	AutoSensitivity    bool
	FrameStabilisation bool
	WhiteBalance       WhiteBalanceMode
	ImageFilter        ImageFilterType
	FlipHorizontal     bool
	FlipVertical       bool
}

// DefaultCameraTuning returns the stock tuning.
func DefaultCameraTuning() CameraTuning {
	return CameraTuning{
		Brightness:         50,
		ISO:                100,
		FrameStabilisation: true,
		WhiteBalance:       WhiteBalanceAuto,
		ImageFilter:        ImageFilterNoise,
	}
}

// Settings expands the tuning into the ordered list of settings to apply.
// Everything applies to all ports except the mirror, which is scoped to
// mirrorPort.
func (t CameraTuning) Settings(mirrorPort uint32) []Setting {
	return []Setting{
		Sharpness{PortIndex: AllPorts, Value: t.Sharpness},
		Contrast{PortIndex: AllPorts, Value: t.Contrast},
		Saturation{PortIndex: AllPorts, Value: t.Saturation},
		Brightness{PortIndex: AllPorts, Value: t.Brightness},
		ExposureValue{PortIndex: AllPorts, Compensation: t.EVCompensation, Sensitivity: t.ISO, AutoSensitivity: t.AutoSensitivity},
		FrameStabilisation{PortIndex: AllPorts, Enabled: t.FrameStabilisation},
		WhiteBalance{PortIndex: AllPorts, Mode: t.WhiteBalance},
		ImageFilter{PortIndex: AllPorts, Filter: t.ImageFilter},
		Mirror{PortIndex: mirrorPort, Mode: MirrorFromFlip(t.FlipHorizontal, t.FlipVertical)},
	}
}
