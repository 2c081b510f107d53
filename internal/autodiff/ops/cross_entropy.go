package ops

import (
	"fmt"
	"math"

	"github.com/aster-ml/aster/internal/tensor"
)

// CrossEntropyOp records the fused softmax cross-entropy loss.
//
// Forward:
//
//	loss = mean(-log_softmax(logits)[target])
//
// Backward:
//
//	d(loss)/d(logits) = (softmax(logits) - one_hot(target)) / batchSize
//
// Fusing the two keeps the backward pass a single subtraction instead of
// chaining the softmax Jacobian through a log.
type CrossEntropyOp struct {
	inputs []*tensor.RawTensor // [logits, targets]
	output *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		inputs: []*tensor.RawTensor{logits, targets},
		output: output,
	}
}

// Backward computes the logits gradient. Targets are class indices and
// not differentiable.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logits, targets := op.inputs[0], op.inputs[1]
	shape := logits.Shape()
	batchSize, numClasses := shape[0], shape[1]

	grad := zerosLike(logits)

	switch logits.DType() {
	case tensor.Float32:
		crossEntropyGrad(logits.AsFloat32(), targets.AsInt32(), outputGrad.AsFloat32()[0],
			grad.AsFloat32(), batchSize, numClasses)
	case tensor.Float64:
		crossEntropyGrad(logits.AsFloat64(), targets.AsInt32(), outputGrad.AsFloat64()[0],
			grad.AsFloat64(), batchSize, numClasses)
	default:
		panic(fmt.Sprintf("cross_entropy backward: unsupported dtype %s", logits.DType()))
	}

	return []*tensor.RawTensor{grad, nil}
}

// Inputs returns [logits, targets].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// CrossEntropyForward computes mean(-log_softmax(logits)[target]) as a
// scalar tensor of shape [1]. logits must be [batchSize, numClasses] and
// targets [batchSize] int32 class indices.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be 2D, got %v", shape))
	}
	tShape := targets.Shape()
	if len(tShape) != 1 || tShape[0] != shape[0] {
		panic(fmt.Sprintf("cross_entropy: targets must be [%d], got %v", shape[0], tShape))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cross_entropy: targets must be int32, got %s", targets.DType()))
	}

	batchSize, numClasses := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: %v", err))
	}

	switch logits.DType() {
	case tensor.Float32:
		output.AsFloat32()[0] = crossEntropyLoss(logits.AsFloat32(), targets.AsInt32(), batchSize, numClasses)
	case tensor.Float64:
		output.AsFloat64()[0] = crossEntropyLoss(logits.AsFloat64(), targets.AsInt32(), batchSize, numClasses)
	default:
		panic(fmt.Sprintf("cross_entropy: unsupported dtype %s", logits.DType()))
	}

	return output
}

func crossEntropyLoss[T float32 | float64](logits []T, targets []int32, batchSize, numClasses int) T {
	var total T
	for b := 0; b < batchSize; b++ {
		row := logits[b*numClasses : (b+1)*numClasses]
		target := int(targets[b])
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0, %d)", target, numClasses))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp T
		for _, v := range row {
			sumExp += T(math.Exp(float64(v - maxVal)))
		}

		// -log_softmax(row)[target] via the log-sum-exp trick.
		total += T(math.Log(float64(sumExp))) - (row[target] - maxVal)
	}
	return total / T(batchSize)
}

func crossEntropyGrad[T float32 | float64](logits []T, targets []int32, scale T, grad []T, batchSize, numClasses int) {
	for b := 0; b < batchSize; b++ {
		row := logits[b*numClasses : (b+1)*numClasses]
		out := grad[b*numClasses : (b+1)*numClasses]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp T
		for i, v := range row {
			e := T(math.Exp(float64(v - maxVal)))
			out[i] = e
			sumExp += e
		}

		factor := scale / T(batchSize)
		for i := range out {
			out[i] = out[i] / sumExp * factor
		}
		out[int(targets[b])] -= factor
	}
}
