// Package omx binds the Broadcom OpenMAX IL runtime found on the Raspberry
// Pi. It needs the VideoCore headers and libraries under /opt/vc and is only
// built with the omx build tag; without it New reports ErrUnsupported.
package omx

import "errors"

// ErrUnsupported is returned when the binary was built without the omx tag.
var ErrUnsupported = errors.New("omx: built without OpenMAX IL support (rebuild with -tags omx)")

// componentPrefix is prepended to the short component names.
const componentPrefix = "OMX.broadcom."
