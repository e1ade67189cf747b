package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FromFloat64s builds a float64 tensor from values laid out row-major in the
// given shape. Bytes are little-endian.
func FromFloat64s(shape []int, values []float64) (Tensor, error) {
	n, err := Elems(shape)
	if err != nil {
		return Tensor{}, err
	}
	if len(values) != n {
		return Tensor{}, fmt.Errorf("got %d values, shape %v requires %d", len(values), shape, n)
	}

	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return Tensor{DType: Float64, Shape: append([]int(nil), shape...), Data: data}, nil
}

// Float64s unpacks a float64 tensor's raw bytes back into values.
func (t Tensor) Float64s() ([]float64, error) {
	if t.DType != Float64 {
		return nil, fmt.Errorf("tensor dtype is %q, not float64", t.DType)
	}
	if len(t.Data)%8 != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of 8", len(t.Data))
	}
	values := make([]float64, len(t.Data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(t.Data[8*i:]))
	}
	return values, nil
}
