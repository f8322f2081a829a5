package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIsVar(name string) bool {
	switch name {
	case "in.u", "in.a", "in.b", "Error", "Scaled":
		return true
	}
	return false
}

func TestClassifyGain(t *testing.T) {
	shape := Classify("Gain", "Kp", "Error * cfg.kp", testIsVar)
	gain, ok := shape.(GainShape)
	require.True(t, ok)
	assert.Equal(t, "Error", gain.Input)
	assert.Equal(t, "cfg.kp", gain.Factor)

	// Factor first: the variable side is still the input.
	shape = Classify("Gain", "Kp", "2.0f * in.u", testIsVar)
	gain, ok = shape.(GainShape)
	require.True(t, ok)
	assert.Equal(t, "in.u", gain.Input)
	assert.Equal(t, "2.0f", gain.Factor)
}

func TestClassifySum(t *testing.T) {
	shape := Classify("Sum", "Sum", "in.a - in.b + Error", testIsVar)
	sum, ok := shape.(SumShape)
	require.True(t, ok)
	assert.Equal(t, "+-+", sum.Signs)
	assert.Equal(t, []string{"in.a", "in.b", "Error"}, sum.Operands)
}

func TestClassifyProduct(t *testing.T) {
	shape := Classify("Product", "Mult", "in.a * in.b * Error", testIsVar)
	prod, ok := shape.(ProductShape)
	require.True(t, ok)
	assert.False(t, prod.Division)
	assert.Len(t, prod.Operands, 3)

	shape = Classify("Product", "Div", "in.a / in.b", testIsVar)
	prod, ok = shape.(ProductShape)
	require.True(t, ok)
	assert.True(t, prod.Division)
	assert.Equal(t, []string{"in.a", "in.b"}, prod.Operands)
}

func TestClassifySaturate(t *testing.T) {
	shape := Classify("Saturate", "Limit", "std::clamp(Scaled, -1.0f, cfg.max_out)", testIsVar)
	sat, ok := shape.(SaturateShape)
	require.True(t, ok)
	assert.Equal(t, "Scaled", sat.Input)
	assert.Equal(t, "-1.0", sat.Lower)
	assert.Equal(t, "max_out", sat.Upper)
}

func TestClassifySwitch(t *testing.T) {
	shape := Classify("Switch", "Sel", "(in.u > 0.5f) ? in.a : in.b", testIsVar)
	sw, ok := shape.(SwitchShape)
	require.True(t, ok)
	assert.Equal(t, "in.u", sw.Condition)
	assert.Equal(t, "0.5", sw.Threshold)
	assert.Equal(t, "in.a", sw.TrueValue)
	assert.Equal(t, "in.b", sw.FalseValue)
}

func TestClassifyRelational(t *testing.T) {
	shape := Classify("RelationalOperator", "Cmp", "(in.a != in.b) ? 1.0f : 0.0f", testIsVar)
	rel, ok := shape.(RelationalShape)
	require.True(t, ok)
	assert.Equal(t, "~=", rel.Operator)
	assert.Equal(t, "in.a", rel.Left)
	assert.Equal(t, "in.b", rel.Right)
}

func TestClassifyLogic(t *testing.T) {
	shape := Classify("Logic", "Both", "((in.a != 0.0f) && (in.b != 0.0f)) ? 1.0f : 0.0f", testIsVar)
	logic, ok := shape.(LogicShape)
	require.True(t, ok)
	assert.Equal(t, "AND", logic.Operator)
	assert.Equal(t, []string{"in.a", "in.b"}, logic.Operands)

	shape = Classify("Logic", "Not", "(in.u == 0.0f) ? 1.0f : 0.0f", testIsVar)
	logic, ok = shape.(LogicShape)
	require.True(t, ok)
	assert.Equal(t, "NOT", logic.Operator)
	assert.Equal(t, []string{"in.u"}, logic.Operands)
}

func TestClassifyTrigAndMath(t *testing.T) {
	shape := Classify("Trigonometry", "Angle", "std::atan2(in.a, in.b)", testIsVar)
	trig, ok := shape.(TrigShape)
	require.True(t, ok)
	assert.Equal(t, "atan2", trig.Function)
	assert.Equal(t, []string{"in.a", "in.b"}, trig.Args)

	shape = Classify("Math", "Root", "std::sqrt(in.u)", testIsVar)
	math, ok := shape.(MathShape)
	require.True(t, ok)
	assert.Equal(t, "sqrt", math.Function)
	assert.Equal(t, "in.u", math.Input)

	shape = Classify("Math", "Square1", "in.u * in.u", testIsVar)
	math, ok = shape.(MathShape)
	require.True(t, ok)
	assert.Equal(t, "square", math.Function)
}

func TestClassifyFallsBackToPassthrough(t *testing.T) {
	shape := Classify("Sum", "Odd", "", testIsVar)
	sum, ok := shape.(SumShape)
	require.True(t, ok)
	assert.Empty(t, sum.Operands)

	shape = Classify("Saturate", "Odd", "in.u", testIsVar)
	_, ok = shape.(PassthroughShape)
	assert.True(t, ok)

	shape = Classify("SomethingNew", "X", "in.u", testIsVar)
	pass, ok := shape.(PassthroughShape)
	require.True(t, ok)
	assert.Equal(t, "in.u", pass.Input)
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "0.5", cleanValue("0.5f"))
	assert.Equal(t, "-1.0", cleanValue("-1.0f"))
	assert.Equal(t, "kp", cleanValue("cfg.kp"))
	assert.Equal(t, "max_out", cleanValue("cfg.max_out"))
}
