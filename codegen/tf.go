// Package codegen turns a block-diagram system into scalar update code:
// it discretizes continuous blocks, collects state and configuration
// variables, schedules blocks in dependency order, and emits one
// statement per block with subsystems inlined.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/da0x/oc/mdl"
)

// TransferFunction holds continuous-time coefficients for
// b0*s^n + b1*s^(n-1) + ... over a0*s^n + a1*s^(n-1) + ...
type TransferFunction struct {
	Num   []float64
	Den   []float64
	Order int
}

// ParseCoefficients parses a MATLAB-style coefficient array like
// "[0.3 0]" or "[0.02, 1]". Commas and semicolons are separators.
func ParseCoefficients(s string) []float64 {
	s = strings.ReplaceAll(s, "[", "")
	s = strings.ReplaceAll(s, "]", "")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, ";", " ")

	var coeffs []float64
	for _, field := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			coeffs = append(coeffs, v)
		}
	}
	return coeffs
}

// ParseTransferFunction reads Numerator/Denominator parameters off a
// TransferFcn block. The order comes from the denominator, clamped to
// at least one.
func ParseTransferFunction(blk *mdl.Block) TransferFunction {
	numStr := "[1]"
	if v, ok := blk.Param("Numerator"); ok {
		numStr = v
	}
	denStr := "[1]"
	if v, ok := blk.Param("Denominator"); ok {
		denStr = v
	}

	tf := TransferFunction{
		Num: ParseCoefficients(numStr),
		Den: ParseCoefficients(denStr),
	}
	tf.Order = len(tf.Den) - 1
	if tf.Order < 1 {
		tf.Order = 1
	}
	return tf
}

// Discretize applies the Tustin (bilinear) transform, substituting
// s = (2/dt)*(z-1)/(z+1), and returns discrete numerator and
// denominator coefficients in descending powers of z.
//
// For a first-order H(s) = (b0*s + b1)/(a0*s + a1), with k = 2/dt:
//
//	num_d = [b0*k + b1, -b0*k + b1]
//	den_d = [a0*k + a1, -a0*k + a1]
//
// Orders above two are returned unchanged; the emitter degrades those
// blocks to a passthrough with a marker.
func (tf TransferFunction) Discretize(dt float64) (numD, denD []float64) {
	k := 2.0 / dt

	switch tf.Order {
	case 1:
		b0, b1 := firstOrderNum(tf.Num)
		a0 := coeff(tf.Den, 0, 0.0)
		a1 := coeff(tf.Den, 1, 1.0)

		numD = []float64{b0*k + b1, -b0*k + b1}
		denD = []float64{a0*k + a1, -a0*k + a1}
		return numD, denD

	case 2:
		b0, b1, b2 := secondOrderNum(tf.Num)
		a0 := coeff(tf.Den, 0, 0.0)
		a1 := coeff(tf.Den, 1, 0.0)
		a2 := coeff(tf.Den, 2, 1.0)

		k2 := k * k
		numD = []float64{
			b0*k2 + b1*k + b2,
			2*b2 - 2*b0*k2,
			b0*k2 - b1*k + b2,
		}
		denD = []float64{
			a0*k2 + a1*k + a2,
			2*a2 - 2*a0*k2,
			a0*k2 - a1*k + a2,
		}
		return numD, denD
	}

	return tf.Num, tf.Den
}

// firstOrderNum resolves numerator coefficients for order one,
// treating a single coefficient [b] as the constant numerator of
// H(s) = b/(a0*s + a1).
func firstOrderNum(num []float64) (b0, b1 float64) {
	b0 = coeff(num, 0, 0.0)
	if len(num) > 1 {
		b1 = num[1]
	} else if len(num) == 1 {
		b1 = num[0]
	} else {
		b1 = 1.0
	}
	if len(num) == 1 && num[0] != 0 {
		b0 = 0.0
		b1 = num[0]
	}
	return b0, b1
}

func secondOrderNum(num []float64) (b0, b1, b2 float64) {
	b0 = coeff(num, 0, 0.0)
	b1 = coeff(num, 1, 0.0)
	if len(num) > 2 {
		b2 = num[2]
	} else if len(num) == 1 {
		b2 = num[0]
	} else {
		b2 = 1.0
	}
	if len(num) == 1 {
		b0, b1, b2 = 0, 0, num[0]
	}
	return b0, b1, b2
}

func coeff(c []float64, i int, def float64) float64 {
	if i < len(c) {
		return c[i]
	}
	return def
}

// FormatFloat renders a float literal for generated code.
func FormatFloat(v float64) string {
	return fmt.Sprintf("%.6ff", v)
}
