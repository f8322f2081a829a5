package mdl

import (
	"encoding/xml"
	"strconv"

	"github.com/da0x/oc/errors"
)

// Wire structures for encoding/xml. The Simulink system documents use a
// generic <P Name="...">value</P> property scheme, so most fields land
// in property lists that get sorted into typed fields afterwards.

type xmlP struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

type xmlPortCounts struct {
	In  string `xml:"in,attr"`
	Out string `xml:"out,attr"`
}

type xmlMaskParameter struct {
	Name        string `xml:"Name,attr"`
	Type        string `xml:"Type,attr"`
	ShowTooltip string `xml:"ShowTooltip,attr"`
	Prompt      string `xml:"Prompt"`
	Value       string `xml:"Value"`
}

type xmlMask struct {
	Display *struct {
		RunInitForIconRedraw string `xml:"RunInitForIconRedraw,attr"`
	} `xml:"Display"`
	MaskParameters []xmlMaskParameter `xml:"MaskParameter"`
}

type xmlPort struct {
	Type  string `xml:"Type,attr"`
	Index string `xml:"Index,attr"`
	P     []xmlP `xml:"P"`
}

type xmlPortProperties struct {
	Ports []xmlPort `xml:"Port"`
}

type xmlSystemRef struct {
	Ref string `xml:"Ref,attr"`
}

type xmlBlock struct {
	BlockType      string             `xml:"BlockType,attr"`
	Name           string             `xml:"Name,attr"`
	SID            string             `xml:"SID,attr"`
	PortCounts     *xmlPortCounts     `xml:"PortCounts"`
	P              []xmlP             `xml:"P"`
	Mask           *xmlMask           `xml:"Mask"`
	PortProperties *xmlPortProperties `xml:"PortProperties"`
	System         *xmlSystemRef      `xml:"System"`
}

type xmlBranch struct {
	P []xmlP `xml:"P"`
}

type xmlLine struct {
	P      []xmlP      `xml:"P"`
	Branch []xmlBranch `xml:"Branch"`
}

type xmlSystem struct {
	XMLName xml.Name   `xml:"System"`
	P       []xmlP     `xml:"P"`
	Blocks  []xmlBlock `xml:"Block"`
	Lines   []xmlLine  `xml:"Line"`
}

type xmlModelInfo struct {
	XMLName xml.Name      `xml:"ModelInformation"`
	Library *xmlModelNode `xml:"Library"`
	Model   *xmlModelNode `xml:"Model"`
}

type xmlModelNode struct {
	P      []xmlP        `xml:"P"`
	System *xmlSystemRef `xml:"System"`
}

func propValue(props []xmlP, name string) (string, bool) {
	for _, p := range props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ParseSystemXML parses one system document into a System.
func ParseSystemXML(id, content string) (*System, error) {
	var raw xmlSystem
	if err := xml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "system %s: %v", id, err)
	}

	sys := &System{ID: id, ZoomFactor: 100}

	if v, ok := propValue(raw.P, "Location"); ok {
		sys.Location = ParseIntArray(v)
	}
	if v, ok := propValue(raw.P, "ZoomFactor"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			sys.ZoomFactor = n
		}
	}
	if v, ok := propValue(raw.P, "SIDHighWatermark"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			sys.SIDHighWatermark = n
		}
	}
	sys.Open, _ = propValue(raw.P, "Open")
	sys.ReportName, _ = propValue(raw.P, "ReportName")

	for _, xb := range raw.Blocks {
		sys.Blocks = append(sys.Blocks, convertBlock(xb))
	}
	for _, xl := range raw.Lines {
		sys.Connections = append(sys.Connections, convertLine(xl))
	}

	return sys, nil
}

func convertBlock(xb xmlBlock) Block {
	blk := Block{
		Type:       xb.BlockType,
		Name:       xb.Name,
		SID:        xb.SID,
		PortIn:     1,
		PortOut:    1,
		Parameters: make(map[string]string),
	}

	if xb.PortCounts != nil {
		if n, err := strconv.Atoi(xb.PortCounts.In); err == nil {
			blk.PortIn = n
		}
		if n, err := strconv.Atoi(xb.PortCounts.Out); err == nil {
			blk.PortOut = n
		}
	}

	for _, p := range xb.P {
		switch p.Name {
		case "Position":
			blk.Position = ParseIntArray(p.Value)
		case "ZOrder":
			if n, err := strconv.Atoi(p.Value); err == nil {
				blk.ZOrder = n
			}
		default:
			blk.Parameters[p.Name] = p.Value
		}
	}

	if xb.Mask != nil {
		for _, mp := range xb.Mask.MaskParameters {
			blk.MaskParameters = append(blk.MaskParameters, MaskParameter{
				Name:        mp.Name,
				Type:        mp.Type,
				ShowTooltip: mp.ShowTooltip,
				Prompt:      mp.Prompt,
				Value:       mp.Value,
			})
		}
	}

	if xb.PortProperties != nil {
		for _, port := range xb.PortProperties.Ports {
			pp := PortProperty{
				PortType:   port.Type,
				Properties: make(map[string]string),
			}
			if n, err := strconv.Atoi(port.Index); err == nil {
				pp.Index = n
			}
			for _, p := range port.P {
				pp.Properties[p.Name] = p.Value
			}
			blk.PortProperties = append(blk.PortProperties, pp)
		}
	}

	if xb.System != nil {
		blk.SubsystemRef = xb.System.Ref
	}

	return blk
}

func convertLine(xl xmlLine) Connection {
	var conn Connection

	conn.Name, _ = propValue(xl.P, "Name")
	conn.Labels, _ = propValue(xl.P, "Labels")
	conn.Src, _ = propValue(xl.P, "Src")
	conn.Dst, _ = propValue(xl.P, "Dst")
	if v, ok := propValue(xl.P, "ZOrder"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			conn.ZOrder = n
		}
	}
	if v, ok := propValue(xl.P, "Points"); ok {
		conn.Points = ParseIntArray(v)
	}

	for _, xbr := range xl.Branch {
		var br Branch
		br.Dst, _ = propValue(xbr.P, "Dst")
		if v, ok := propValue(xbr.P, "ZOrder"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				br.ZOrder = n
			}
		}
		if v, ok := propValue(xbr.P, "Points"); ok {
			br.Points = ParseIntArray(v)
		}
		conn.Branches = append(conn.Branches, br)
	}

	return conn
}

// ParseBlockDiagram extracts the model UUID, library type, and root
// system reference from the blockdiagram part.
func ParseBlockDiagram(content string) (uuid, libraryType, rootRef string, err error) {
	var info xmlModelInfo
	if err := xml.Unmarshal([]byte(content), &info); err != nil {
		return "", "", "", errors.Wrapf(errors.ErrParse, "blockdiagram: %v", err)
	}

	node := info.Library
	if node == nil {
		node = info.Model
	}
	if node == nil {
		return "", "", "", errors.Wrap(errors.ErrParse, "blockdiagram: no Library or Model element")
	}

	uuid, _ = propValue(node.P, "ModelUUID")
	libraryType, _ = propValue(node.P, "LibraryType")
	if node.System != nil {
		rootRef = node.System.Ref
	}
	return uuid, libraryType, rootRef, nil
}
