package checkpoint

import (
	"fmt"

	"github.com/aster-ml/aster/internal/nn"
	"github.com/aster-ml/aster/internal/tensor"
)

// SaveModule writes a module's parameters to path. Keys are the position
// of the parameter in Parameters() joined with its name, so repeated
// layer types stay distinct.
func SaveModule[B tensor.Backend](path string, module nn.Module[B], opts SaveOptions) error {
	params := module.Parameters()
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for i, p := range params {
		stateDict[paramKey(i, p.Name())] = p.Raw()
	}
	return Save(path, stateDict, opts)
}

// LoadModule restores a module's parameters from path in place. The
// module must have the same architecture that produced the file.
func LoadModule[B tensor.Backend](path string, module nn.Module[B]) (*Header, error) {
	stateDict, header, err := Load(path)
	if err != nil {
		return nil, err
	}

	for i, p := range module.Parameters() {
		key := paramKey(i, p.Name())
		raw, ok := stateDict[key]
		if !ok {
			return nil, fmt.Errorf("checkpoint: missing tensor %q", key)
		}
		dst := p.Raw()
		if !raw.Shape().Equal(dst.Shape()) {
			return nil, fmt.Errorf("checkpoint: tensor %q shape %v does not match parameter shape %v",
				key, raw.Shape(), dst.Shape())
		}
		if raw.DType() != dst.DType() {
			return nil, fmt.Errorf("checkpoint: tensor %q dtype %s does not match parameter dtype %s",
				key, raw.DType(), dst.DType())
		}
		copy(dst.Data()[:dst.ByteSize()], raw.Data()[:raw.ByteSize()])
	}

	return header, nil
}

func paramKey(index int, name string) string {
	return fmt.Sprintf("%d.%s", index, name)
}
