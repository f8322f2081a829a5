package codegen

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/mdl"
)

// generateBlockCode emits the statement(s) for one block. Inputs are
// expression strings already resolved through the signal map; missing
// inputs surface as zero literals with a marker comment.
func (g *Generator) generateBlockCode(
	sys *mdl.System,
	blk *mdl.Block,
	inputs []string,
	outVar string,
	vp string,
	stateVar string,
	signalMap map[string]string,
	code *strings.Builder,
	depth int,
) {
	getInput := func(idx int) string {
		if idx < len(inputs) && inputs[idx] != "" {
			return inputs[idx]
		}
		return "0.0f /* missing input " + strconv.Itoa(idx+1) + " */"
	}

	getParam := func(name, def string) string {
		if v, ok := blk.Param(name); ok {
			return formatParamValue(v)
		}
		return def
	}

	// SubSystems inline rather than emit.
	if blk.Type == "SubSystem" {
		if blk.SubsystemRef != "" && g.model != nil {
			if subsys := g.model.System(blk.SubsystemRef); subsys != nil {
				g.generateSubsystemInline(subsys, blk, inputs, vp, signalMap, code, depth)
				return
			}
		}
		code.WriteString(g.indent + "// SubSystem: " + blk.Name + " (not found)\n")
		code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) + ";\n")
		return
	}

	code.WriteString(g.indent + "// " + blk.Type + ": " + blk.Name + "\n")

	switch blk.Type {
	case "Gain":
		gain := getParam("Gain", "1.0f")
		code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) + " * " + gain + ";\n")

	case "Sum":
		spec := "++"
		if v, ok := blk.Param("Inputs"); ok {
			spec = v
		}
		code.WriteString(g.indent + "auto " + outVar + " = ")
		first := true
		idx := 0
		for _, c := range spec {
			if c == '|' {
				continue
			}
			if c == '+' || c == '-' {
				if !first {
					code.WriteString(" ")
				}
				if c == '-' {
					code.WriteString("- ")
				} else if !first {
					code.WriteString("+ ")
				}
				code.WriteString(getInput(idx))
				idx++
				first = false
			}
		}
		code.WriteString(";\n")

	case "Product":
		spec := "**"
		if v, ok := blk.Param("Inputs"); ok {
			spec = v
		}
		code.WriteString(g.indent + "auto " + outVar + " = ")
		idx := 0
		first := true
		for _, c := range spec {
			if c == '*' || c == '/' {
				if !first {
					if c == '*' {
						code.WriteString(" * ")
					} else {
						code.WriteString(" / ")
					}
				}
				code.WriteString(getInput(idx))
				idx++
				first = false
			}
		}
		if idx == 0 {
			code.WriteString(getInput(0) + " * " + getInput(1))
		}
		code.WriteString(";\n")

	case "Saturate":
		upper := getParam("UpperLimit", "1.0f")
		lower := getParam("LowerLimit", "-1.0f")
		code.WriteString(g.indent + "auto " + outVar + " = std::clamp(" + getInput(0) +
			", " + lower + ", " + upper + ");\n")

	case "MinMax":
		fn := "std::min"
		if v, ok := blk.Param("Function"); ok && (v == "max" || v == "Max") {
			fn = "std::max"
		}
		code.WriteString(g.indent + "auto " + outVar + " = " + fn + "(" +
			getInput(0) + ", " + getInput(1) + ");\n")

	case "Abs":
		code.WriteString(g.indent + "auto " + outVar + " = std::abs(" + getInput(0) + ");\n")

	case "Constant":
		value := getParam("Value", "0.0f")
		code.WriteString(g.indent + "auto " + outVar + " = " + value + ";\n")

	case "UnitDelay", "Memory":
		// Output already comes from the state variable; only the
		// next-step update is emitted here.
		code.WriteString(g.indent + stateVar + " = " + getInput(0) + ";  // update for next step\n")

	case "Integrator", "DiscreteIntegrator":
		code.WriteString(g.indent + stateVar + " += " + getInput(0) + " * cfg.dt;\n")

	case "RelationalOperator":
		op := "=="
		if v, ok := blk.Param("Operator"); ok {
			op = v
		}
		if op == "~=" {
			op = "!="
		}
		code.WriteString(g.indent + "auto " + outVar + " = (" + getInput(0) +
			" " + op + " " + getInput(1) + ") ? 1.0f : 0.0f;\n")

	case "Logic":
		op := "AND"
		if v, ok := blk.Param("Operator"); ok {
			op = v
		}
		if op == "NOT" {
			code.WriteString(g.indent + "auto " + outVar + " = (" + getInput(0) +
				" == 0.0f) ? 1.0f : 0.0f;\n")
		} else {
			logicOp := "&&"
			switch op {
			case "OR":
				logicOp = "||"
			case "XOR":
				logicOp = "!="
			}
			code.WriteString(g.indent + "auto " + outVar + " = ((" + getInput(0) +
				" != 0.0f) " + logicOp + " (" + getInput(1) + " != 0.0f)) ? 1.0f : 0.0f;\n")
		}

	case "Switch":
		threshold := getParam("Threshold", "0.0f")
		criteria := "u2 >= Threshold"
		if v, ok := blk.Param("Criteria"); ok {
			criteria = v
		}
		var cond string
		switch {
		case strings.Contains(criteria, ">="):
			cond = getInput(1) + " >= " + threshold
		case strings.Contains(criteria, ">"):
			cond = getInput(1) + " > " + threshold
		case strings.Contains(criteria, "!=") || strings.Contains(criteria, "~="):
			cond = getInput(1) + " != " + threshold
		default:
			cond = getInput(1) + " != 0.0f"
		}
		code.WriteString(g.indent + "auto " + outVar + " = (" + cond + ") ? " +
			getInput(0) + " : " + getInput(2) + ";\n")

	case "Trigonometry":
		fn := "sin"
		if v, ok := blk.Param("Operator"); ok {
			fn = v
		}
		code.WriteString(g.indent + "auto " + outVar + " = std::" + fn + "(" + getInput(0) + ");\n")

	case "Math":
		fn := "sqrt"
		if v, ok := blk.Param("Operator"); ok {
			fn = v
		}
		switch fn {
		case "sqrt", "exp", "log", "log10":
			code.WriteString(g.indent + "auto " + outVar + " = std::" + fn + "(" + getInput(0) + ");\n")
		case "square":
			code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) + " * " + getInput(0) + ";\n")
		case "pow":
			code.WriteString(g.indent + "auto " + outVar + " = std::pow(" +
				getInput(0) + ", " + getInput(1) + ");\n")
		default:
			code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) +
				"; // TODO: Math/" + fn + "\n")
		}

	case "TransferFcn":
		g.emitTransferFcn(blk, getInput(0), outVar, vp, code)

	case "Derivative":
		code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) +
			"; // TODO: Derivative needs previous value\n")

	case "Demux":
		// Demux passes through; each output rebinds to the input with
		// an index marker instead of emitting a statement.
		for p := 1; p <= blk.PortOut; p++ {
			signalMap[blk.SID+"#out:"+strconv.Itoa(p)] = getInput(0) + " /* demux " + strconv.Itoa(p) + " */"
		}

	case "Mux":
		// Scalar-only signals: a Mux degenerates to its first input.
		code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) + "; // Mux\n")

	default:
		code.WriteString(g.indent + "auto " + outVar + " = " + getInput(0) +
			"; // TODO: " + blk.Type + "\n")
	}
}

// emitTransferFcn emits a scoped block computing the bilinear-transform
// coefficients at runtime from cfg.dt, then the Direct Form I update.
func (g *Generator) emitTransferFcn(blk *mdl.Block, input, outVar, vp string, code *strings.Builder) {
	tf := ParseTransferFunction(blk)
	statePrefix := "state." + vp + "_tf_"

	code.WriteString(g.indent + "// TransferFcn: " + blk.Name + " (order " + strconv.Itoa(tf.Order) + ")\n")
	code.WriteString(g.indent + "{\n")

	switch tf.Order {
	case 1:
		b0, b1 := firstOrderNum(tf.Num)
		a0 := coeff(tf.Den, 0, 0.0)
		a1 := coeff(tf.Den, 1, 1.0)

		code.WriteString(g.indent + "    float k = 2.0f / cfg.dt;\n")
		code.WriteString(g.indent + "    float b0_d = " + FormatFloat(b0) + " * k + " + FormatFloat(b1) + ";\n")
		code.WriteString(g.indent + "    float b1_d = -" + FormatFloat(b0) + " * k + " + FormatFloat(b1) + ";\n")
		code.WriteString(g.indent + "    float a0_d = " + FormatFloat(a0) + " * k + " + FormatFloat(a1) + ";\n")
		code.WriteString(g.indent + "    float a1_d = -" + FormatFloat(a0) + " * k + " + FormatFloat(a1) + ";\n")
		code.WriteString(g.indent + "    float u_n = " + input + ";\n")
		code.WriteString(g.indent + "    float y_n = (b0_d * u_n + b1_d * " + statePrefix + "u0" +
			" - a1_d * " + statePrefix + "x0) / a0_d;\n")
		code.WriteString(g.indent + "    " + statePrefix + "u0 = u_n;\n")
		code.WriteString(g.indent + "    " + statePrefix + "x0 = y_n;\n")
		code.WriteString(g.indent + "}\n")
		code.WriteString(g.indent + "auto " + outVar + " = " + statePrefix + "x0;\n")

	case 2:
		// A shorter numerator is low-order: [b] is constant, [b1 b2]
		// is first degree over the second-degree denominator.
		var b0, b1, b2 float64
		switch {
		case len(tf.Num) > 2:
			b0, b1, b2 = tf.Num[0], tf.Num[1], tf.Num[2]
		case len(tf.Num) == 2:
			b0, b1, b2 = 0, tf.Num[0], tf.Num[1]
		case len(tf.Num) == 1:
			b0, b1, b2 = 0, 0, tf.Num[0]
		default:
			b0, b1, b2 = 0, 0, 1.0
		}
		a0 := coeff(tf.Den, 0, 0.0)
		a1 := coeff(tf.Den, 1, 0.0)
		a2 := coeff(tf.Den, 2, 1.0)

		code.WriteString(g.indent + "    float k = 2.0f / cfg.dt;\n")
		code.WriteString(g.indent + "    float k2 = k * k;\n")
		code.WriteString(g.indent + "    float b0_d = " + FormatFloat(b0) + "*k2 + " + FormatFloat(b1) + "*k + " + FormatFloat(b2) + ";\n")
		code.WriteString(g.indent + "    float b1_d = 2.0f*" + FormatFloat(b2) + " - 2.0f*" + FormatFloat(b0) + "*k2;\n")
		code.WriteString(g.indent + "    float b2_d = " + FormatFloat(b0) + "*k2 - " + FormatFloat(b1) + "*k + " + FormatFloat(b2) + ";\n")
		code.WriteString(g.indent + "    float a0_d = " + FormatFloat(a0) + "*k2 + " + FormatFloat(a1) + "*k + " + FormatFloat(a2) + ";\n")
		code.WriteString(g.indent + "    float a1_d = 2.0f*" + FormatFloat(a2) + " - 2.0f*" + FormatFloat(a0) + "*k2;\n")
		code.WriteString(g.indent + "    float a2_d = " + FormatFloat(a0) + "*k2 - " + FormatFloat(a1) + "*k + " + FormatFloat(a2) + ";\n")
		code.WriteString(g.indent + "    float u_n = " + input + ";\n")
		code.WriteString(g.indent + "    float y_n = (b0_d*u_n + b1_d*" + statePrefix + "u0 + b2_d*" +
			statePrefix + "u1 - a1_d*" + statePrefix + "x0 - a2_d*" + statePrefix + "x1) / a0_d;\n")
		code.WriteString(g.indent + "    " + statePrefix + "u1 = " + statePrefix + "u0;\n")
		code.WriteString(g.indent + "    " + statePrefix + "u0 = u_n;\n")
		code.WriteString(g.indent + "    " + statePrefix + "x1 = " + statePrefix + "x0;\n")
		code.WriteString(g.indent + "    " + statePrefix + "x0 = y_n;\n")
		code.WriteString(g.indent + "}\n")
		code.WriteString(g.indent + "auto " + outVar + " = " + statePrefix + "x0;\n")

	default:
		code.WriteString(g.indent + "    // Order " + strconv.Itoa(tf.Order) + " transfer function not yet supported\n")
		code.WriteString(g.indent + "}\n")
		code.WriteString(g.indent + "auto " + outVar + " = " + input + ";\n")
		g.log.Warnw("Transfer function order not supported, passing through",
			"block", blk.Name,
			"order", tf.Order)
	}
}
