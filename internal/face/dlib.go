//go:build dlib

package face

import (
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/dlib"
)

func newDlibProvider(modelsDir string, opts provider.DetectorOptions) (provider.FaceProvider, error) {
	p, err := dlib.New(modelsDir, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

const dlibCompiled = true
