package diagram

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/da0x/oc/oc"
)

const mdlHeader = "# MathWorks OPC Text Package\n" +
	"Model {\n" +
	"  Version  24.2\n" +
	"  Description \"Simulink model saved in R2024b\"\n" +
	"}\n" +
	"__MWOPC_PACKAGE_BEGIN__ R2024b\n"

// MDLWriter assembles MDL text packages, either verbatim from a
// metadata sidecar or from defaults when no sidecar exists.
type MDLWriter struct{}

func NewMDLWriter() *MDLWriter { return &MDLWriter{} }

// WriteWithMetadata reproduces the original container from the
// sidecar's raw parts. System parts missing from the sidecar (an older
// sidecar, or one edited by hand) are regenerated from the recorded
// block and connection layout.
func (w *MDLWriter) WriteWithMetadata(meta *oc.Metadata) string {
	var out strings.Builder
	out.WriteString(mdlHeader)

	written := map[string]bool{}

	if len(meta.PartOrder) > 0 {
		for _, path := range meta.PartOrder {
			if content, ok := meta.RawParts[path]; ok {
				writePart(&out, path, content)
				written[path] = true
			}
		}
	} else {
		paths := make([]string, 0, len(meta.RawParts))
		for path := range meta.RawParts {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			writePart(&out, path, meta.RawParts[path])
			written[path] = true
		}
	}

	ids := make([]string, 0, len(meta.Systems))
	for id := range meta.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		path := "/simulink/systems/" + id + ".xml"
		if written[path] {
			continue
		}
		writePart(&out, path, systemXMLFromMetadata(meta.Systems[id]))
	}

	return out.String()
}

// ParsedSource pairs a parsed OC file with the raw text it came from.
// The raw text is needed because diagram rebuild is driven by the
// comments the code generator emits, which the parser drops.
type ParsedSource struct {
	File      oc.File
	RawSource string
}

// WriteWithDefaults builds a complete MDL package from OC sources
// alone. Each element's update body is rebuilt into a full block
// diagram, with component calls becoming nested subsystems.
func (w *MDLWriter) WriteWithDefaults(sources []ParsedSource, modelName string) string {
	modelUUID := uuid.NewString()

	var elements []*oc.Element
	var components []oc.Component
	elementSource := map[*oc.Element]string{}
	for i := range sources {
		for j := range sources[i].File.Namespaces {
			ns := &sources[i].File.Namespaces[j]
			for k := range ns.Elements {
				elem := &ns.Elements[k]
				elements = append(elements, elem)
				elementSource[elem] = sources[i].RawSource
			}
			components = append(components, ns.Components...)
		}
	}

	// Element systems take system_1..system_N; component subsystems
	// are numbered after them as the builder discovers calls.
	builder := NewBuilder(components)
	sysCounter := len(elements)
	systemParts := make([]string, 0, len(elements))
	childParts := map[string]string{}
	var childIDs []string
	for _, elem := range elements {
		gen := builder.GenerateElement(elem, elementSource[elem], &sysCounter)
		systemParts = append(systemParts, gen.SystemXML)
		for i, id := range gen.ChildSystemIDs {
			childParts[id] = gen.ChildSystemXMLs[i]
			childIDs = append(childIDs, id)
		}
	}

	var out strings.Builder
	out.WriteString(mdlHeader)

	writePart(&out, "/[Content_Types].xml", defaultContentTypes)
	writePart(&out, "/_rels/.rels", defaultRels)
	writePart(&out, "/metadata/coreProperties.xml", defaultCoreProperties)
	writePart(&out, "/metadata/mwcoreProperties.xml", defaultMWCoreProperties)
	writePart(&out, "/metadata/mwcorePropertiesExtension.xml", defaultMWCoreExtension(modelUUID))
	writePart(&out, "/metadata/mwcorePropertiesReleaseInfo.xml", defaultReleaseInfo)
	writePart(&out, "/simulink/_rels/blockdiagram.xml.rels", defaultBlockdiagramRels)
	writePart(&out, "/simulink/_rels/configSetInfo.xml.rels", defaultConfigSetInfoRels)
	writePart(&out, "/simulink/bddefaults.xml", defaultBDDefaults)
	writePart(&out, "/simulink/blockdiagram.xml", defaultBlockdiagram(modelUUID))
	writePart(&out, "/simulink/configSet0.xml", defaultConfigSet)
	writePart(&out, "/simulink/configSetInfo.xml", defaultConfigSetInfo)
	writePart(&out, "/simulink/modelDictionary.xml", defaultModelDictionary)

	writePart(&out, "/simulink/systems/_rels/system_root.xml.rels",
		defaultSystemRels(len(elements), childIDs))
	writePart(&out, "/simulink/systems/system_root.xml", defaultRootSystem(elements))

	for i := range systemParts {
		writePart(&out, "/simulink/systems/system_"+strconv.Itoa(i+1)+".xml", systemParts[i])
	}
	for _, id := range childIDs {
		writePart(&out, "/simulink/systems/system_"+id+".xml", childParts[id])
	}

	writePart(&out, "/simulink/windowsInfo.xml", defaultWindowsInfo)

	return out.String()
}

// writePart frames one OPC part. XML parts get a blank separator line;
// BASE64 parts don't.
func writePart(out *strings.Builder, path, content string) {
	isBase64 := strings.HasSuffix(path, ".mxarray")
	out.WriteString("__MWOPC_PART_BEGIN__ " + path)
	if isBase64 {
		out.WriteString(" BASE64")
	}
	out.WriteString("\n" + content + "\n")
	if !isBase64 {
		out.WriteString("\n")
	}
}

// systemXMLFromMetadata renders a system part from the recorded layout.
func systemXMLFromMetadata(sys oc.SystemMetadata) string {
	var out strings.Builder
	out.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	out.WriteString("<System>\n")

	if len(sys.Location) > 0 {
		out.WriteString("  <P Name=\"Location\">" + formatIntList(sys.Location) + "</P>\n")
	}
	if sys.Open != "" {
		out.WriteString("  <P Name=\"Open\">" + sys.Open + "</P>\n")
	}
	out.WriteString("  <P Name=\"ZoomFactor\">" + strconv.Itoa(sys.ZoomFactor) + "</P>\n")
	if sys.ReportName != "" {
		out.WriteString("  <P Name=\"ReportName\">" + sys.ReportName + "</P>\n")
	}
	if sys.SIDHighWatermark > 0 {
		out.WriteString("  <P Name=\"SIDHighWatermark\">" + strconv.Itoa(sys.SIDHighWatermark) + "</P>\n")
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		out.WriteString("  <Block BlockType=\"" + blk.Type + "\" Name=\"" + xmlEscape(blk.Name) +
			"\" SID=\"" + blk.SID + "\">\n")

		if blk.PortIn > 0 || blk.PortOut > 0 {
			out.WriteString("    <PortCounts")
			if blk.PortIn > 0 {
				out.WriteString(" in=\"" + strconv.Itoa(blk.PortIn) + "\"")
			}
			if blk.PortOut > 0 {
				out.WriteString(" out=\"" + strconv.Itoa(blk.PortOut) + "\"")
			}
			out.WriteString("/>\n")
		}
		if len(blk.Position) > 0 {
			out.WriteString("    <P Name=\"Position\">" + formatIntList(blk.Position) + "</P>\n")
		}
		out.WriteString("    <P Name=\"ZOrder\">" + strconv.Itoa(blk.ZOrder) + "</P>\n")

		names := make([]string, 0, len(blk.Parameters))
		for name := range blk.Parameters {
			if name == "Position" || name == "ZOrder" {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.WriteString("    <P Name=\"" + name + "\">" + xmlEscape(blk.Parameters[name]) + "</P>\n")
		}

		if len(blk.Mask) > 0 {
			out.WriteString("    <Mask>\n")
			if blk.MaskDisplayXML != "" {
				out.WriteString("      " + blk.MaskDisplayXML + "\n")
			} else {
				out.WriteString("      <Display RunInitForIconRedraw=\"off\"/>\n")
			}
			for _, mp := range blk.Mask {
				out.WriteString("      <MaskParameter Name=\"" + mp.Name + "\" Type=\"" + mp.Type + "\"")
				if mp.ShowTooltip != "" {
					out.WriteString(" ShowTooltip=\"" + mp.ShowTooltip + "\"")
				}
				out.WriteString(">\n")
				out.WriteString("        <Prompt>" + xmlEscape(mp.Prompt) + "</Prompt>\n")
				out.WriteString("        <Value>" + xmlEscape(mp.Value) + "</Value>\n")
				out.WriteString("      </MaskParameter>\n")
			}
			out.WriteString("    </Mask>\n")
		}

		if len(blk.PortProperties) > 0 {
			out.WriteString("    <PortProperties>\n")
			for _, pp := range blk.PortProperties {
				out.WriteString("      <Port Type=\"" + pp.PortType + "\" Index=\"" + strconv.Itoa(pp.Index) + "\">\n")
				keys := make([]string, 0, len(pp.Properties))
				for k := range pp.Properties {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					out.WriteString("        <P Name=\"" + k + "\">" + xmlEscape(pp.Properties[k]) + "</P>\n")
				}
				out.WriteString("      </Port>\n")
			}
			out.WriteString("    </PortProperties>\n")
		}

		if blk.SubsystemRef != "" {
			out.WriteString("    <System Ref=\"" + blk.SubsystemRef + "\"/>\n")
		}
		out.WriteString("  </Block>\n")
	}

	for i := range sys.Connections {
		conn := &sys.Connections[i]
		out.WriteString("  <Line>\n")
		if conn.Name != "" {
			out.WriteString("    <P Name=\"Name\">" + xmlEscape(conn.Name) + "</P>\n")
		}
		out.WriteString("    <P Name=\"ZOrder\">" + strconv.Itoa(conn.ZOrder) + "</P>\n")
		if conn.Labels != "" {
			out.WriteString("    <P Name=\"Labels\">" + conn.Labels + "</P>\n")
		}
		out.WriteString("    <P Name=\"Src\">" + conn.Src + "</P>\n")
		if len(conn.Points) > 0 {
			out.WriteString("    <P Name=\"Points\">" + formatIntList(conn.Points) + "</P>\n")
		}
		if conn.Dst != "" && len(conn.Branches) == 0 {
			out.WriteString("    <P Name=\"Dst\">" + conn.Dst + "</P>\n")
		}
		for _, br := range conn.Branches {
			out.WriteString("    <Branch>\n")
			out.WriteString("      <P Name=\"ZOrder\">" + strconv.Itoa(br.ZOrder) + "</P>\n")
			if len(br.Points) > 0 {
				out.WriteString("      <P Name=\"Points\">" + formatIntList(br.Points) + "</P>\n")
			}
			out.WriteString("      <P Name=\"Dst\">" + br.Dst + "</P>\n")
			out.WriteString("    </Branch>\n")
		}
		out.WriteString("  </Line>\n")
	}

	out.WriteString("</System>")
	return out.String()
}

func formatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// defaultRootSystem lays the element subsystems out in a grid.
func defaultRootSystem(elements []*oc.Element) string {
	var out strings.Builder
	out.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	out.WriteString("<System>\n")
	out.WriteString("  <P Name=\"Location\">[-1, -8, 1921, 1153]</P>\n")
	out.WriteString("  <P Name=\"ZoomFactor\">100</P>\n")
	out.WriteString("  <P Name=\"SIDHighWatermark\">" + strconv.Itoa(len(elements)) + "</P>\n")

	sid := 1
	x, y := 100, 100
	for _, elem := range elements {
		inCount, outCount := 0, 0
		if sec := elem.Section("input"); sec != nil {
			inCount = len(sec.Variables)
		}
		if sec := elem.Section("output"); sec != nil {
			outCount = len(sec.Variables)
		}

		out.WriteString("  <Block BlockType=\"SubSystem\" Name=\"" + xmlEscape(elem.Name) +
			"\" SID=\"" + strconv.Itoa(sid) + "\">\n")
		if inCount > 0 || outCount > 0 {
			out.WriteString("    <PortCounts")
			if inCount > 0 {
				out.WriteString(" in=\"" + strconv.Itoa(inCount) + "\"")
			}
			if outCount > 0 {
				out.WriteString(" out=\"" + strconv.Itoa(outCount) + "\"")
			}
			out.WriteString("/>\n")
		}
		out.WriteString("    <P Name=\"Position\">[" + strconv.Itoa(x) + ", " + strconv.Itoa(y) +
			", " + strconv.Itoa(x+120) + ", " + strconv.Itoa(y+80) + "]</P>\n")
		out.WriteString("    <P Name=\"ZOrder\">" + strconv.Itoa(sid) + "</P>\n")
		out.WriteString("    <System Ref=\"system_" + strconv.Itoa(sid) + "\"/>\n")
		out.WriteString("  </Block>\n")

		y += 120
		if y > 800 {
			y = 100
			x += 200
		}
		sid++
	}

	out.WriteString("</System>")
	return out.String()
}

func defaultSystemRels(elementCount int, childIDs []string) string {
	var out strings.Builder
	out.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\" ?>\n")
	out.WriteString("<Relationships xmlns=\"http://schemas.openxmlformats.org/package/2006/relationships\">\n")
	rel := func(id string) {
		out.WriteString("  <Relationship Id=\"system_" + id +
			"\" Target=\"system_" + id +
			".xml\" Type=\"http://schemas.mathworks.com/simulink/2010/relationships/system\"/>\n")
	}
	for i := 1; i <= elementCount; i++ {
		rel(strconv.Itoa(i))
	}
	for _, id := range childIDs {
		rel(id)
	}
	out.WriteString("</Relationships>")
	return out.String()
}

func defaultMWCoreExtension(modelUUID string) string {
	return "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\" ?>\n" +
		"<mwcoreProperties xmlns=\"http://schemas.mathworks.com/package/2014/corePropertiesExtension\">\n" +
		"  <uuid>" + modelUUID + "</uuid>\n" +
		"</mwcoreProperties>"
}

func defaultBlockdiagram(modelUUID string) string {
	return "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<ModelInformation Version=\"1.0\">\n" +
		"  <Library>\n" +
		"    <P Name=\"ModelUUID\">" + modelUUID + "</P>\n" +
		"    <P Name=\"LibraryType\">BlockLibrary</P>\n" +
		"    <System Ref=\"system_root\"/>\n" +
		"  </Library>\n" +
		"</ModelInformation>"
}

const defaultContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default ContentType="application/vnd.mathworks.matlab.mxarray+binary" Extension="mxarray"/>
  <Default ContentType="application/vnd.openxmlformats-package.relationships+xml" Extension="rels"/>
  <Default ContentType="application/vnd.mathworks.simulink.mdl+xml" Extension="xml"/>
  <Override ContentType="application/vnd.openxmlformats-package.core-properties+xml" PartName="/metadata/coreProperties.xml"/>
  <Override ContentType="application/vnd.mathworks.package.coreProperties+xml" PartName="/metadata/mwcoreProperties.xml"/>
  <Override ContentType="application/vnd.mathworks.package.corePropertiesExtension+xml" PartName="/metadata/mwcorePropertiesExtension.xml"/>
  <Override ContentType="application/vnd.mathworks.package.corePropertiesReleaseInfo+xml" PartName="/metadata/mwcorePropertiesReleaseInfo.xml"/>
  <Override ContentType="application/vnd.mathworks.simulink.configSet+xml" PartName="/simulink/configSet0.xml"/>
  <Override ContentType="application/vnd.mathworks.simulink.configSetInfo+xml" PartName="/simulink/configSetInfo.xml"/>
  <Override ContentType="application/vnd.mathworks.simulink.mf0+xml" PartName="/simulink/modelDictionary.xml"/>
  <Override ContentType="application/vnd.mathworks.simulink.blockDiagram+xml" PartName="/simulink/windowsInfo.xml"/>
</Types>`

const defaultRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="blockDiagram" Target="simulink/blockdiagram.xml" Type="http://schemas.mathworks.com/simulink/2010/relationships/blockDiagram"/>
  <Relationship Id="blockDiagramDefaults" Target="simulink/bddefaults.xml" Type="http://schemas.mathworks.com/simulink/2017/relationships/blockDiagramDefaults"/>
  <Relationship Id="configSetInfo" Target="simulink/configSetInfo.xml" Type="http://schemas.mathworks.com/simulink/2014/relationships/configSetInfo"/>
  <Relationship Id="modelDictionary" Target="simulink/modelDictionary.xml" Type="http://schemas.mathworks.com/simulinkModel/2016/relationships/modelDictionary"/>
  <Relationship Id="rId1" Target="metadata/mwcoreProperties.xml" Type="http://schemas.mathworks.com/package/2012/relationships/coreProperties"/>
  <Relationship Id="rId2" Target="metadata/mwcorePropertiesExtension.xml" Type="http://schemas.mathworks.com/package/2014/relationships/corePropertiesExtension"/>
  <Relationship Id="rId3" Target="metadata/mwcorePropertiesReleaseInfo.xml" Type="http://schemas.mathworks.com/package/2019/relationships/corePropertiesReleaseInfo"/>
  <Relationship Id="rId4" Target="metadata/coreProperties.xml" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"/>
</Relationships>`

const defaultCoreProperties = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <cp:category>library</cp:category>
  <dcterms:created xsi:type="dcterms:W3CDTF">2026-01-01T00:00:00Z</dcterms:created>
  <dc:creator>oc</dc:creator>
  <cp:lastModifiedBy>oc</cp:lastModifiedBy>
  <dcterms:modified xsi:type="dcterms:W3CDTF">2026-01-01T00:00:00Z</dcterms:modified>
  <cp:revision>1.0</cp:revision>
  <cp:version>R2024b</cp:version>
</cp:coreProperties>`

const defaultMWCoreProperties = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<mwcoreProperties xmlns="http://schemas.mathworks.com/package/2012/coreProperties">
  <contentType>application/vnd.mathworks.simulink.model</contentType>
  <contentTypeFriendlyName>Simulink Model</contentTypeFriendlyName>
  <matlabRelease>R2024b</matlabRelease>
</mwcoreProperties>`

const defaultReleaseInfo = `<?xml version="1.0" encoding="UTF-8"?>
<MathWorks_version_info>
  <version>24.2.0.2863752</version>
  <release>R2024b</release>
  <description>Update 5</description>
  <date>Jan 31 2025</date>
  <checksum>2052451712</checksum>
</MathWorks_version_info>`

const defaultBlockdiagramRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="system_root" Target="systems/system_root.xml" Type="http://schemas.mathworks.com/simulink/2010/relationships/system"/>
  <Relationship Id="windowsInfo" Target="windowsInfo.xml" Type="http://schemas.mathworks.com/simulinkModel/2019/relationships/windowsInfo"/>
</Relationships>`

const defaultConfigSetInfoRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="configSet0" Target="configSet0.xml" Type="http://schemas.mathworks.com/simulink/2014/relationships/configSet"/>
</Relationships>`

const defaultBDDefaults = `<?xml version="1.0" encoding="utf-8"?>
<BlockDiagramDefaults>
  <MaskDefaults SelfModifiable="off">
    <Display IconFrame="on" IconOpaque="opaque" RunInitForIconRedraw="analyze" IconRotate="none" PortRotate="default" IconUnits="autoscale"/>
    <MaskParameter Evaluate="on" Tunable="on" NeverSave="off" Internal="off" ReadOnly="off" Enabled="on" Visible="on" ToolTip="on"/>
    <DialogControl>
      <ControlOptions Visible="on" Enabled="on" Row="new" HorizontalStretch="on" PromptLocation="top" Orientation="horizontal" Scale="linear" TextType="Plain Text" Expand="off" ShowFilter="on" ShowParameterName="on" WordWrap="on" AlignPrompts="off"/>
    </DialogControl>
  </MaskDefaults>
</BlockDiagramDefaults>`

const defaultConfigSet = `<?xml version="1.0" encoding="utf-8"?>
<ConfigSet>
  <Object Version="24.1.0" ClassName="Simulink.ConfigSet">
    <P Name="DisabledProps" Class="double">[]</P>
    <P Name="Description"/>
    <Array PropName="Components" Type="Handle" Dimension="1*1">
      <Object ObjectID="2" Version="24.1.0" ClassName="Simulink.SolverCC">
        <P Name="DisabledProps" Class="double">[]</P>
        <P Name="Description"/>
        <P Name="Components" Class="double">[]</P>
        <P Name="SolverName">VariableStepAuto</P>
      </Object>
    </Array>
  </Object>
</ConfigSet>`

const defaultConfigSetInfo = `<?xml version="1.0" encoding="utf-8"?>
<ConfigSetInfo>
  <ConfigSet Ref="configSet0" Active="true"/>
</ConfigSetInfo>`

const defaultModelDictionary = `<?xml version="1.0" encoding="utf-8"?>
<ModelDictionary/>`

const defaultWindowsInfo = `<?xml version="1.0" encoding="utf-8"?>
<WindowsInfo>
  <Object PropName="BdWindowsInfo" ObjectID="1" ClassName="Simulink.BDWindowsInfo">
    <Object PropName="WindowsInfo" ObjectID="2" ClassName="Simulink.WindowInfo">
      <P Name="IsActive" Class="logical">1</P>
      <P Name="Location" Class="double">[0.0, 0.0, 1920.0, 1080.0]</P>
    </Object>
  </Object>
</WindowsInfo>`
