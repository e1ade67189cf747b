// Package codec packs fixed-width numeric arrays into transport-safe tokens.
// The token is the array's raw bytes in standard base64; dtype and shape
// metadata travel alongside so the receiver can reconstruct the array
// bit-for-bit without trusting the token's length.
package codec

import (
	"encoding/base64"
	"fmt"
)

// DType identifies the element type of a tensor.
type DType string

// Supported element types.
const (
	Float16 DType = "float16"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

// elemSizes maps each dtype to its width in bytes.
var elemSizes = map[DType]int{
	Float16: 2,
	Float32: 4,
	Float64: 8,
}

// ElemSize returns the byte width of one element of the given dtype,
// or an error for unknown dtypes.
func ElemSize(d DType) (int, error) {
	size, ok := elemSizes[d]
	if !ok {
		return 0, fmt.Errorf("unknown dtype %q", d)
	}
	return size, nil
}

// Elems returns the element count implied by a shape. An empty shape denotes
// a scalar (one element); any zero dimension collapses the count to zero.
func Elems(shape []int) (int, error) {
	n := 1
	for i, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("shape dimension %d is negative: %d", i, dim)
		}
		n *= dim
	}
	return n, nil
}

// Tensor is a multi-dimensional numeric array in row-major raw-byte form.
type Tensor struct {
	DType DType
	Shape []int
	Data  []byte
}

// Encoded is the transport representation of a tensor.
type Encoded struct {
	Token string `json:"token"`
	DType DType  `json:"dtype"`
	Shape []int  `json:"shape"`
}

// Encode renders a tensor into its transport form. The tensor's data length
// must match the element count implied by its shape exactly.
func Encode(t Tensor) (Encoded, error) {
	size, err := ElemSize(t.DType)
	if err != nil {
		return Encoded{}, err
	}
	n, err := Elems(t.Shape)
	if err != nil {
		return Encoded{}, err
	}
	if want := n * size; len(t.Data) != want {
		return Encoded{}, fmt.Errorf("data length %d does not match shape %v (%d bytes)", len(t.Data), t.Shape, want)
	}

	return Encoded{
		Token: base64.StdEncoding.EncodeToString(t.Data),
		DType: t.DType,
		Shape: append([]int(nil), t.Shape...),
	}, nil
}

// Decode reverses Encode. The expected byte count is computed from the
// declared shape: tokens longer than that are truncated, shorter ones are an
// error. The result is bit-identical to the encoded input.
func Decode(e Encoded) (Tensor, error) {
	size, err := ElemSize(e.DType)
	if err != nil {
		return Tensor{}, err
	}
	n, err := Elems(e.Shape)
	if err != nil {
		return Tensor{}, err
	}

	data, err := base64.StdEncoding.DecodeString(e.Token)
	if err != nil {
		return Tensor{}, fmt.Errorf("decode token: %w", err)
	}

	want := n * size
	if len(data) < want {
		return Tensor{}, fmt.Errorf("token holds %d bytes, shape %v requires %d", len(data), e.Shape, want)
	}

	return Tensor{
		DType: e.DType,
		Shape: append([]int(nil), e.Shape...),
		Data:  data[:want],
	}, nil
}
