package diagram

import "strings"

// The generator emits one expression shape per block type. Classify
// recognizes those shapes explicitly, so a pattern that fails to match
// degrades to a tagged PassthroughShape instead of a half-parsed block.

// Shape is a recognized generated-expression form.
type Shape interface{ isShape() }

// GainShape: "input * factor", "factor * input", or "input / factor".
type GainShape struct {
	Input  string
	Factor string
}

// SumShape: "a + b - c ...". Signs holds one '+'/'-' per operand.
type SumShape struct {
	Signs    string
	Operands []string
}

// ProductShape: "a * b * c" or a two-operand division.
type ProductShape struct {
	Division bool
	Operands []string
}

// ConstantShape: a literal or config value with no inputs.
type ConstantShape struct {
	Value string
}

// SaturateShape: "std::clamp(input, lower, upper)".
type SaturateShape struct {
	Input string
	Lower string
	Upper string
}

// MinMaxShape: "std::min(a, b)" or "std::max(a, b)".
type MinMaxShape struct {
	Function string
	Args     []string
}

// SwitchShape: "(cond > threshold) ? a : b".
type SwitchShape struct {
	Condition  string
	Threshold  string
	TrueValue  string
	FalseValue string
}

// RelationalShape: "(left OP right) ? 1.0f : 0.0f".
type RelationalShape struct {
	Operator string
	Left     string
	Right    string
}

// LogicShape: NOT/AND/OR over zero-vs-nonzero float comparisons.
type LogicShape struct {
	Operator string
	Operands []string
}

// AbsShape: "std::abs(input)".
type AbsShape struct {
	Input string
}

// TrigShape: "std::sin(x)", "std::atan2(y, x)", etc.
type TrigShape struct {
	Function string
	Args     []string
}

// MathShape: sqrt/exp/log call, or "x * x" squaring.
type MathShape struct {
	Function string
	Input    string
}

// ReferenceShape: a passthrough emitted for library reference blocks.
type ReferenceShape struct {
	Input string
}

// PassthroughShape is the explicit failure mode: the expression did
// not match the expected form for its block type, so only a best
// effort single-input connection is attempted.
type PassthroughShape struct {
	Input string
}

func (GainShape) isShape()        {}
func (SumShape) isShape()         {}
func (ProductShape) isShape()     {}
func (ConstantShape) isShape()    {}
func (SaturateShape) isShape()    {}
func (MinMaxShape) isShape()      {}
func (SwitchShape) isShape()      {}
func (RelationalShape) isShape()  {}
func (LogicShape) isShape()       {}
func (AbsShape) isShape()         {}
func (TrigShape) isShape()        {}
func (MathShape) isShape()        {}
func (ReferenceShape) isShape()   {}
func (PassthroughShape) isShape() {}

// Classify parses a generated expression according to its block type.
// isVar reports whether a name is a known signal variable; it breaks
// the left/right ambiguity in Gain expressions.
func Classify(blockType, blockName, expr string, isVar func(string) bool) Shape {
	switch blockType {
	case "Gain":
		return classifyGain(expr, isVar)
	case "Sum":
		return classifySum(expr)
	case "Product":
		return classifyProduct(expr)
	case "Constant":
		return ConstantShape{Value: strings.TrimPrefix(expr, "cfg.")}
	case "Saturate":
		return classifySaturate(expr)
	case "MinMax":
		return classifyMinMax(expr)
	case "Switch":
		return classifySwitch(expr)
	case "RelationalOperator":
		return classifyRelational(expr)
	case "Logic":
		return classifyLogic(expr)
	case "Abs":
		return classifyCall(expr, func(input string) Shape { return AbsShape{Input: input} })
	case "Trigonometry":
		return classifyTrig(expr)
	case "Math":
		return classifyMath(blockName, expr)
	case "Reference":
		return ReferenceShape{Input: stripTrailingComment(expr)}
	default:
		return PassthroughShape{Input: expr}
	}
}

func classifyGain(expr string, isVar func(string) bool) Shape {
	if mul := strings.Index(expr, " * "); mul >= 0 {
		left := strings.TrimSpace(expr[:mul])
		right := strings.TrimSpace(expr[mul+3:])
		switch {
		case isVar(left):
			return GainShape{Input: left, Factor: right}
		case isVar(right):
			return GainShape{Input: right, Factor: left}
		default:
			return GainShape{Input: left, Factor: right}
		}
	}
	if div := strings.Index(expr, " / "); div >= 0 {
		left := strings.TrimSpace(expr[:div])
		right := strings.TrimSpace(expr[div+3:])
		return GainShape{Input: left, Factor: "1/" + right}
	}
	return GainShape{Input: expr, Factor: "1"}
}

func classifySum(expr string) Shape {
	var signs strings.Builder
	var operands []string

	var current strings.Builder
	first := true
	negateNext := false

	trimmed := strings.TrimSpace(expr)
	for pos := 0; pos <= len(trimmed); pos++ {
		var c byte
		if pos < len(trimmed) {
			c = trimmed[pos]
		}

		if c == '+' || c == '-' || c == 0 {
			operand := strings.TrimSpace(current.String())
			if operand != "" {
				if negateNext {
					signs.WriteByte('-')
				} else {
					signs.WriteByte('+')
				}
				operands = append(operands, operand)
			} else if first && c == '-' {
				negateNext = true
				current.Reset()
				first = false
				continue
			}
			negateNext = c == '-'
			current.Reset()
			first = false
		} else {
			current.WriteByte(c)
		}
	}

	return SumShape{Signs: signs.String(), Operands: operands}
}

func classifyProduct(expr string) Shape {
	if div := strings.Index(expr, " / "); div >= 0 {
		return ProductShape{
			Division: true,
			Operands: []string{
				strings.TrimSpace(expr[:div]),
				strings.TrimSpace(expr[div+3:]),
			},
		}
	}

	operands := splitOutsideParens(expr, " * ")
	if len(operands) < 2 {
		return PassthroughShape{Input: expr}
	}
	return ProductShape{Operands: operands}
}

func classifySaturate(expr string) Shape {
	args, ok := callArgs(expr)
	if !ok || len(args) < 3 {
		return PassthroughShape{Input: expr}
	}
	return SaturateShape{
		Input: args[0],
		Lower: cleanValue(args[1]),
		Upper: cleanValue(args[2]),
	}
}

func classifyMinMax(expr string) Shape {
	var fn string
	switch {
	case strings.Contains(expr, "std::min"):
		fn = "min"
	case strings.Contains(expr, "std::max"):
		fn = "max"
	default:
		return PassthroughShape{Input: expr}
	}
	args, ok := callArgs(expr)
	if !ok {
		return MinMaxShape{Function: fn}
	}
	return MinMaxShape{Function: fn, Args: args}
}

func classifySwitch(expr string) Shape {
	q := strings.IndexByte(expr, '?')
	if q < 0 {
		return PassthroughShape{Input: expr}
	}
	colon := strings.IndexByte(expr[q:], ':')
	if colon < 0 {
		return PassthroughShape{Input: expr}
	}
	colon += q

	condition := stripOuterParens(strings.TrimSpace(expr[:q]))
	trueVal := strings.TrimSpace(expr[q+1 : colon])
	falseVal := strings.TrimSpace(expr[colon+1:])

	gt := strings.Index(condition, " > ")
	if gt < 0 {
		return PassthroughShape{Input: expr}
	}
	return SwitchShape{
		Condition:  strings.TrimSpace(condition[:gt]),
		Threshold:  cleanValue(condition[gt+3:]),
		TrueValue:  trueVal,
		FalseValue: falseVal,
	}
}

var relationalOps = []string{" >= ", " <= ", " > ", " < ", " == ", " != "}

func classifyRelational(expr string) Shape {
	q := strings.IndexByte(expr, '?')
	if q < 0 {
		return PassthroughShape{Input: expr}
	}
	condition := stripOuterParens(strings.TrimSpace(expr[:q]))

	for _, op := range relationalOps {
		if at := strings.Index(condition, op); at >= 0 {
			operator := strings.TrimSpace(op)
			if operator == "!=" {
				operator = "~="
			}
			return RelationalShape{
				Operator: operator,
				Left:     strings.TrimSpace(condition[:at]),
				Right:    strings.TrimSpace(condition[at+len(op):]),
			}
		}
	}
	return PassthroughShape{Input: expr}
}

func classifyLogic(expr string) Shape {
	q := strings.IndexByte(expr, '?')
	if q < 0 {
		return PassthroughShape{Input: expr}
	}
	condition := strings.TrimSpace(expr[:q])

	// NOT: "(X == 0.0f) ? 1.0f : 0.0f"
	if strings.Contains(condition, "== 0.0f") &&
		!strings.Contains(condition, "&&") && !strings.Contains(condition, "||") {
		open := strings.IndexByte(condition, '(')
		eq := strings.Index(condition, " == ")
		if open < 0 || eq < 0 {
			return PassthroughShape{Input: expr}
		}
		return LogicShape{
			Operator: "NOT",
			Operands: []string{strings.TrimSpace(condition[open+1 : eq])},
		}
	}

	isAnd := strings.Contains(condition, "&&")
	delim := "||"
	operator := "OR"
	if isAnd {
		delim = "&&"
		operator = "AND"
	}

	inner := stripOuterParens(condition)
	var operands []string
	for _, part := range strings.Split(inner, delim) {
		part = strings.TrimSpace(part)
		open := strings.IndexByte(part, '(')
		ne := strings.Index(part, " != ")
		if open < 0 || ne < 0 {
			continue
		}
		operands = append(operands, strings.TrimSpace(part[open+1:ne]))
	}
	if len(operands) == 0 {
		return PassthroughShape{Input: expr}
	}
	return LogicShape{Operator: operator, Operands: operands}
}

func classifyTrig(expr string) Shape {
	var fn string
	switch {
	case strings.Contains(expr, "std::atan2"):
		fn = "atan2"
	case strings.Contains(expr, "std::cos"):
		fn = "cos"
	case strings.Contains(expr, "std::sin"):
		fn = "sin"
	case strings.Contains(expr, "std::tan"):
		fn = "tan"
	default:
		return PassthroughShape{Input: expr}
	}
	args, _ := callArgs(expr)
	return TrigShape{Function: fn, Args: args}
}

func classifyMath(blockName, expr string) Shape {
	switch {
	case strings.Contains(expr, "std::sqrt"):
		return mathCall("sqrt", expr)
	case strings.Contains(expr, "std::exp"):
		return mathCall("exp", expr)
	case strings.Contains(expr, "std::log"):
		return mathCall("log", expr)
	case strings.Contains(expr, " * ") && strings.Contains(blockName, "Square"):
		mul := strings.Index(expr, " * ")
		return MathShape{Function: "square", Input: strings.TrimSpace(expr[:mul])}
	case strings.Contains(blockName, "Conj"):
		return MathShape{Function: "conj", Input: stripTrailingComment(expr)}
	default:
		return PassthroughShape{Input: stripTrailingComment(expr)}
	}
}

func mathCall(fn, expr string) Shape {
	args, ok := callArgs(expr)
	if !ok || len(args) == 0 {
		return MathShape{Function: fn, Input: stripTrailingComment(expr)}
	}
	return MathShape{Function: fn, Input: args[0]}
}

func classifyCall(expr string, build func(input string) Shape) Shape {
	args, ok := callArgs(expr)
	if !ok || len(args) == 0 {
		return PassthroughShape{Input: expr}
	}
	return build(args[0])
}

// ─── Expression helpers ───

// callArgs extracts "f(a, b, c)" arguments, splitting at top level
// only.
func callArgs(expr string) ([]string, bool) {
	open := strings.IndexByte(expr, '(')
	close := strings.LastIndexByte(expr, ')')
	if open < 0 || close < 0 || close <= open {
		return nil, false
	}
	return splitArgs(expr[open+1 : close]), true
}

func splitArgs(s string) []string {
	var result []string
	depth := 0
	var current strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if c == ',' && depth == 0 {
			if t := strings.TrimSpace(current.String()); t != "" {
				result = append(result, t)
			}
			current.Reset()
		} else {
			current.WriteByte(c)
		}
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		result = append(result, t)
	}
	return result
}

func splitOutsideParens(expr, sep string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i+len(sep) <= len(expr); i++ {
		switch expr[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if depth == 0 && expr[i:i+len(sep)] == sep {
			if t := strings.TrimSpace(expr[start:i]); t != "" {
				out = append(out, t)
			}
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	if t := strings.TrimSpace(expr[start:]); t != "" {
		out = append(out, t)
	}
	return out
}

func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		return s[1 : len(s)-1]
	}
	return s
}

func stripTrailingComment(s string) string {
	if at := strings.Index(s, "// TODO:"); at >= 0 {
		s = s[:at]
	}
	return strings.TrimSpace(s)
}

// cleanValue strips a float literal's 'f' suffix and a cfg. prefix so
// the value round-trips back into a block parameter.
func cleanValue(s string) string {
	v := strings.TrimSpace(s)
	if strings.HasSuffix(v, "f") && len(v) > 1 {
		isFloat := true
		for i := 0; i < len(v)-1; i++ {
			c := v[i]
			if !(c >= '0' && c <= '9') && c != '.' && c != '-' && c != 'e' && c != 'E' {
				isFloat = false
				break
			}
		}
		if isFloat {
			v = v[:len(v)-1]
		}
	}
	return strings.TrimPrefix(v, "cfg.")
}
