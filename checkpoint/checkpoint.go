// Copyright 2025 Aster ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and loads model state in the .aster format.
//
// Example:
//
//	import (
//	    "github.com/aster-ml/aster/checkpoint"
//	    "github.com/aster-ml/aster/nn"
//	)
//
//	// Save a trained model
//	err := checkpoint.SaveModule("model.aster", model, checkpoint.SaveOptions{
//	    Training: &checkpoint.TrainingMeta{Epoch: 10, Loss: 0.03},
//	})
//
//	// Restore it later
//	header, err := checkpoint.LoadModule("model.aster", model)
package checkpoint

import (
	"github.com/aster-ml/aster/internal/checkpoint"
	"github.com/aster-ml/aster/internal/nn"
	"github.com/aster-ml/aster/internal/tensor"
)

// Header is the JSON header of a .aster file.
type Header = checkpoint.Header

// TensorMeta describes one tensor in the data section.
type TensorMeta = checkpoint.TensorMeta

// TrainingMeta carries checkpoint state for resuming a training run.
type TrainingMeta = checkpoint.TrainingMeta

// SaveOptions configures how a state dict is written.
type SaveOptions = checkpoint.SaveOptions

// Save writes a state dict to path in the .aster format.
func Save(path string, stateDict map[string]*tensor.RawTensor, opts SaveOptions) error {
	return checkpoint.Save(path, stateDict, opts)
}

// Load reads a .aster file and returns the state dict and its header.
func Load(path string) (map[string]*tensor.RawTensor, *Header, error) {
	return checkpoint.Load(path)
}

// SaveModule writes a module's parameters to path.
func SaveModule[B tensor.Backend](path string, module nn.Module[B], opts SaveOptions) error {
	return checkpoint.SaveModule(path, module, opts)
}

// LoadModule restores a module's parameters from path in place.
// The module must have the same architecture that produced the file.
func LoadModule[B tensor.Backend](path string, module nn.Module[B]) (*Header, error) {
	return checkpoint.LoadModule(path, module)
}
