package schema

import (
	"strconv"
	"strings"
)

// Writer renders an ElementSchema as a YAML document. Emission is
// hand-rolled so group ordering and quoting stay byte-stable across
// runs; Load reads the result back with a YAML parser.
type Writer struct{}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Write(schema *ElementSchema) string {
	var out strings.Builder

	out.WriteString("---\n")
	out.WriteString("metadata:\n")
	out.WriteString("    name: " + schema.Name + "\n")
	out.WriteString("    type: A\n")
	out.WriteString("    revision: 0\n")
	out.WriteString("    format_version: 0.0\n")
	out.WriteString("    description: '" + escapeYAML(schema.Description) + "'\n")
	out.WriteString("    parent_library: '" + schema.ParentLibrary + "'\n")
	out.WriteString("    category: 'element'\n")
	out.WriteString("\n")

	if len(schema.Inputs) > 0 {
		out.WriteString("IN:\n")
		out.WriteString("    use: inputs_group\n")
		out.WriteString("    signals:\n")
		writeSignals(&out, schema.Inputs)
		out.WriteString("\n")
	}

	if len(schema.Config) > 0 {
		out.WriteString("CONFIG:\n")
		out.WriteString("    use: config_group\n")
		out.WriteString("    description: 'Configuration parameters'\n")
		out.WriteString("    signals:\n")
		writeSignals(&out, schema.Config)
		out.WriteString("\n")
	}

	if len(schema.Outputs) > 0 {
		out.WriteString("OUT:\n")
		out.WriteString("    use: outputs_group\n")
		out.WriteString("    signals:\n")
		writeSignals(&out, schema.Outputs)
		out.WriteString("\n")
	}

	if len(schema.State) > 0 {
		out.WriteString("STATE:\n")
		out.WriteString("    use: state_group\n")
		out.WriteString("    signals:\n")
		writeSignals(&out, schema.State)
		out.WriteString("\n")
	}

	if len(schema.Functions) > 0 {
		out.WriteString("FUNCTIONS:\n")
		for i := range schema.Functions {
			writeFunction(&out, &schema.Functions[i])
		}
		out.WriteString("\n")
	}

	return out.String()
}

func writeSignals(out *strings.Builder, signals []Signal) {
	const indent = "        "
	for _, sig := range signals {
		out.WriteString(indent + sig.Name + ":\n")
		out.WriteString(indent + "    description: '" + escapeYAML(sig.Description) + "'\n")
		out.WriteString(indent + "    type: " + sig.Type + "\n")
		if sig.ArraySize > 0 {
			out.WriteString(indent + "    array: " + strconv.Itoa(sig.ArraySize) + "\n")
		}
		if sig.Default != "" {
			out.WriteString(indent + "    default: " + sig.Default + "\n")
		}
		if sig.Units != "" {
			out.WriteString(indent + "    units: '" + sig.Units + "'\n")
		}
	}
}

func writeFunction(out *strings.Builder, fn *Function) {
	const indent = "    "
	out.WriteString(indent + fn.Name + ":\n")

	writeGroup := func(label string, signals []Signal) {
		if len(signals) == 0 {
			return
		}
		out.WriteString(indent + "    " + label + ":\n")
		for _, sig := range signals {
			out.WriteString(indent + "        " + sig.Name + ": { type: " + sig.Type)
			if sig.Default != "" {
				out.WriteString(", default: " + sig.Default)
			}
			out.WriteString(" }\n")
		}
	}

	writeGroup("IN", fn.Inputs)
	writeGroup("OUT", fn.Outputs)
	writeGroup("STATE", fn.State)
	writeGroup("CONFIG", fn.Config)
}

// escapeYAML doubles single quotes per YAML single-quoted scalar rules.
func escapeYAML(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
