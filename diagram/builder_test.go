package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da0x/oc/oc"
)

const filterSource = `namespace demo {
    element Speed_Filter {
        frequency: 1kHz;

        input {
            float u;
        }

        output {
            float y;
        }

        config {
            float k = 2.0;
            float dt = 0.001;
        }

        update {
            // Gain: Scale
            auto Scale = in.u * cfg.k;

            // Outputs
            out.y = Scale;
        }
    }
} // namespace demo
`

func parseElement(t *testing.T, source string) *oc.Element {
	t.Helper()
	file, errs := oc.Parse(source)
	require.Empty(t, errs)
	require.NotEmpty(t, file.Namespaces)
	require.NotEmpty(t, file.Namespaces[0].Elements)
	return &file.Namespaces[0].Elements[0]
}

func TestExtractUpdateBody(t *testing.T) {
	lines := ExtractUpdateBody(filterSource, "Speed_Filter", "element")
	require.NotEmpty(t, lines)

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "// Gain: Scale")
	assert.Contains(t, joined, "out.y = Scale;")
	assert.NotContains(t, joined, "frequency")
}

func TestGenerateElementRebuildsDiagram(t *testing.T) {
	elem := parseElement(t, filterSource)

	sysCounter := 1
	gen := NewBuilder(nil).GenerateElement(elem, filterSource, &sysCounter)

	assert.Equal(t, 3, gen.SIDHighWatermark)
	assert.Empty(t, gen.ChildSystemIDs)

	xml := gen.SystemXML
	assert.Contains(t, xml, `<Block BlockType="Inport" Name="u" SID="1">`)
	assert.Contains(t, xml, `<Block BlockType="Gain" Name="Scale" SID="2">`)
	assert.Contains(t, xml, `<P Name="Gain">k</P>`)
	assert.Contains(t, xml, `<Block BlockType="Outport" Name="y" SID="3">`)
	assert.Contains(t, xml, "<P Name=\"Src\">1#out:1</P>\n    <P Name=\"Dst\">2#in:1</P>")
	assert.Contains(t, xml, "<P Name=\"Src\">2#out:1</P>\n    <P Name=\"Dst\">3#in:1</P>")
}

const integratorSource = `namespace demo {
    element Ramp {
        frequency: 1kHz;

        input {
            float u;
        }

        output {
            float y;
        }

        state {
            float accum_state = 0.0;
        }

        update {
            // Integrator: Accum
            state.accum_state += in.u * cfg.dt;

            // Outputs
            out.y = state.accum_state;
        }
    }
} // namespace demo
`

func TestGenerateElementIntegratorState(t *testing.T) {
	elem := parseElement(t, integratorSource)

	sysCounter := 1
	gen := NewBuilder(nil).GenerateElement(elem, integratorSource, &sysCounter)

	xml := gen.SystemXML
	assert.Contains(t, xml, `<Block BlockType="Integrator" Name="Accum" SID="2">`)
	// Feed and readout both wire through the reserved state SID.
	assert.Contains(t, xml, "<P Name=\"Src\">1#out:1</P>\n    <P Name=\"Dst\">2#in:1</P>")
	assert.Contains(t, xml, "<P Name=\"Src\">2#out:1</P>\n    <P Name=\"Dst\">3#in:1</P>")
}

const transferFcnSource = `namespace demo {
    element Plant {
        frequency: 1kHz;

        input {
            float u;
        }

        output {
            float y;
        }

        update {
            // TransferFcn: Lag
            // TransferFcn: 1st order, Tustin discretized
            {
                float u_n = in.u;
                float k = 2.0f / cfg.dt;
                float b0_d = 0 * k + 1;
                float a0_d = 0.5 * k + 1;
                state.lag_tf_y = (u_n + state.lag_tf_u - state.lag_tf_y * (0.5 * k - 1) / a0_d);
                state.lag_tf_u = u_n;
            }
            auto Lag = state.lag_tf_y;

            // Outputs
            out.y = Lag;
        }
    }
} // namespace demo
`

func TestGenerateElementTransferFcn(t *testing.T) {
	elem := parseElement(t, transferFcnSource)

	sysCounter := 1
	gen := NewBuilder(nil).GenerateElement(elem, transferFcnSource, &sysCounter)

	xml := gen.SystemXML
	assert.Contains(t, xml, `<Block BlockType="TransferFcn" Name="Lag" SID="2">`)
	assert.Contains(t, xml, `<P Name="Numerator">[1]</P>`)
	assert.Contains(t, xml, `<P Name="Denominator">[0.5 1]</P>`)
	// Input recovered from the scoped block, not the readout line.
	assert.Contains(t, xml, "<P Name=\"Src\">1#out:1</P>\n    <P Name=\"Dst\">2#in:1</P>")
}

const componentCallSource = `namespace demo {
    component PID {
        input {
            float err;
        }

        output {
            float cmd;
        }

        update {
            // Gain: Kp
            auto Kp = in.err * cfg.kp;

            // Outputs
            out.cmd = Kp;
        }
    }

    element Loop {
        frequency: 1kHz;

        input {
            float sp;
        }

        output {
            float y;
        }

        update {
            // Component call: Inner PID
            PID_input Inner_PID_in{.err = in.sp};
            PID_output Inner_PID_out{};
            PID_update(Inner_PID_in, PID_config{}, state.Inner_PID, Inner_PID_out);
            auto PID_out1 = Inner_PID_out.cmd;

            // Outputs
            out.y = PID_out1;
        }
    }
} // namespace demo
`

func TestGenerateElementComponentCall(t *testing.T) {
	file, errs := oc.Parse(componentCallSource)
	require.Empty(t, errs)
	ns := file.Namespaces[0]
	require.Len(t, ns.Components, 1)
	require.Len(t, ns.Elements, 1)

	sysCounter := 1
	gen := NewBuilder(ns.Components).GenerateElement(&ns.Elements[0], componentCallSource, &sysCounter)

	require.Len(t, gen.ChildSystemIDs, 1)
	assert.Equal(t, "2", gen.ChildSystemIDs[0])
	assert.Equal(t, 2, sysCounter)

	xml := gen.SystemXML
	assert.Contains(t, xml, `<Block BlockType="SubSystem" Name="Inner PID" SID="2">`)
	assert.Contains(t, xml, `<System Ref="system_2"/>`)
	// Element input feeds the subsystem; its output feeds the outport.
	assert.Contains(t, xml, "<P Name=\"Src\">1#out:1</P>\n    <P Name=\"Dst\">2#in:1</P>")
	assert.Contains(t, xml, "<P Name=\"Src\">2#out:1</P>\n    <P Name=\"Dst\">3#in:1</P>")

	child := gen.ChildSystemXMLs[0]
	assert.Contains(t, child, `<Block BlockType="Inport" Name="err" SID="1">`)
	assert.Contains(t, child, `<Block BlockType="Gain" Name="Kp" SID="2">`)
	assert.Contains(t, child, `<Block BlockType="Outport" Name="cmd" SID="3">`)
}

func TestAutoLayoutColumns(t *testing.T) {
	blocks := []Block{
		{SID: 1, Type: "Inport"},
		{SID: 2, Type: "Gain"},
		{SID: 3, Type: "Outport"},
	}
	conns := []Connection{
		{SrcSID: 1, SrcPort: 1, DstSID: 2, DstPort: 1},
		{SrcSID: 2, SrcPort: 1, DstSID: 3, DstPort: 1},
	}
	autoLayout(blocks, conns)

	assert.Equal(t, 50, blocks[0].Position[0])
	assert.Equal(t, 50+layoutColWidth, blocks[1].Position[0])
	assert.Equal(t, 50+2*layoutColWidth, blocks[2].Position[0])
}

func TestEmitSystemXMLBranches(t *testing.T) {
	blocks := []Block{
		{SID: 1, Type: "Inport", Name: "u", PortOut: 1},
		{SID: 2, Type: "Gain", Name: "A", PortIn: 1, PortOut: 1},
		{SID: 3, Type: "Gain", Name: "B", PortIn: 1, PortOut: 1},
	}
	conns := []Connection{
		{SrcSID: 1, SrcPort: 1, DstSID: 2, DstPort: 1},
		{SrcSID: 1, SrcPort: 1, DstSID: 3, DstPort: 1},
	}
	xml := emitSystemXML(blocks, conns, 3)

	assert.Contains(t, xml, "<Branch>")
	assert.Contains(t, xml, "<P Name=\"Dst\">2#in:1</P>")
	assert.Contains(t, xml, "<P Name=\"Dst\">3#in:1</P>")
	// One line, two branches: zorders 1, 2, 3.
	assert.Contains(t, xml, "      <P Name=\"ZOrder\">3</P>")
}

func TestXMLEscapeRoundTrip(t *testing.T) {
	original := "a < b & \"c\"\nnext"
	assert.Equal(t, original, xmlDecode(xmlEscape(original)))
}
