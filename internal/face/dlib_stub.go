//go:build !dlib

package face

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// ErrDlibNotCompiled is returned when FACE_PROVIDER=dlib in a binary built
// without the dlib tag.
var ErrDlibNotCompiled = errors.New("dlib support not compiled in (rebuild with -tags dlib)")

func newDlibProvider(string, provider.DetectorOptions) (provider.FaceProvider, error) {
	return nil, ErrDlibNotCompiled
}

const dlibCompiled = false
