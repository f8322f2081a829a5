package oc

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/codegen"
	"github.com/da0x/oc/mdl"
)

// Writer converts a block diagram system into OC element text, using
// the shared code generator for variable collection and the update body.
type Writer struct {
	model    *mdl.Model
	dt       float64
	indent   string
	maxDepth int
}

// Option configures a Writer.
type Option func(*Writer)

// WithDt sets the default sample time emitted in the config section.
func WithDt(dt float64) Option {
	return func(w *Writer) { w.dt = dt }
}

// WithIndent sets the indentation unit of the update body.
func WithIndent(indent string) Option {
	return func(w *Writer) { w.indent = indent }
}

// WithMaxDepth sets the subsystem inlining ceiling.
func WithMaxDepth(depth int) Option {
	return func(w *Writer) { w.maxDepth = depth }
}

func NewWriter(model *mdl.Model, opts ...Option) *Writer {
	w := &Writer{model: model, dt: 0.001, indent: "        ", maxDepth: 10}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Convert renders one system as an OC element inside the given
// namespace. The system name becomes the element name after
// sanitization.
func (w *Writer) Convert(sys *mdl.System, namespace string) string {
	if namespace == "" {
		namespace = "imported"
	}

	name := sys.Name
	if name == "" {
		name = sys.ID
	}
	elemName := codegen.SanitizeName(name)

	gen := codegen.New(w.model,
		codegen.WithIndent(w.indent),
		codegen.WithMaxDepth(w.maxDepth))
	parts := gen.GenerateParts(sys, "")

	var out strings.Builder
	out.WriteString("namespace " + namespace + " {\n\n")
	out.WriteString("element " + elemName + " {\n")
	out.WriteString("    frequency: 1kHz;\n")

	if len(parts.Inports) > 0 {
		out.WriteString("\n    input {\n")
		for _, port := range parts.Inports {
			out.WriteString("        " + port.Type + " " + port.Name + ";\n")
		}
		out.WriteString("    }\n")
	}

	if len(parts.Outports) > 0 {
		out.WriteString("\n    output {\n")
		for _, port := range parts.Outports {
			out.WriteString("        " + port.Type + " " + port.Name + ";\n")
		}
		out.WriteString("    }\n")
	}

	if len(parts.StateVars) > 0 {
		out.WriteString("\n    state {\n")
		for _, sv := range parts.StateVars {
			out.WriteString("        float " + sv.Name + " = 0.0;")
			if sv.Comment != "" {
				out.WriteString("  // " + sv.Comment)
			}
			out.WriteByte('\n')
		}
		out.WriteString("    }\n")
	}

	if len(parts.ConfigVars) > 0 {
		out.WriteString("\n    config {\n")
		for _, v := range parts.ConfigVars {
			out.WriteString("        float " + v + ";\n")
		}
		out.WriteString("        float dt = " + strconv.FormatFloat(w.dt, 'g', -1, 64) + ";  // sample time\n")
		out.WriteString("    }\n")
	}

	out.WriteString("\n    update {\n")
	out.WriteString(parts.OperationCode)
	out.WriteString("    }\n")

	out.WriteString("}\n\n")
	out.WriteString("} // namespace " + namespace + "\n")

	return out.String()
}
