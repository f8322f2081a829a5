// Package mdl reads Simulink MDL files stored in the MathWorks OPC text
// package format. It splits the container into parts, parses the block
// diagram and system XML documents, and exposes a read-only model of
// systems, blocks, and connections.
package mdl

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/errors"
)

// RootSystemID is the part reference of the top-level system.
const RootSystemID = "system_root"

// Block is a single block within a system.
type Block struct {
	Type string
	Name string
	SID  string

	Position []int
	ZOrder   int

	// Port counts default to one input and one output.
	PortIn  int
	PortOut int

	Parameters     map[string]string
	MaskParameters []MaskParameter
	MaskDisplayXML string
	PortProperties []PortProperty

	// SubsystemRef is the system id this block refers to, when the
	// block is a SubSystem with its own diagram.
	SubsystemRef string
}

// MaskParameter is one configurable parameter of a masked subsystem.
type MaskParameter struct {
	Name        string
	Type        string
	ShowTooltip string
	Prompt      string
	Value       string
}

// PortProperty carries per-port properties of a block.
type PortProperty struct {
	PortType   string
	Index      int
	Properties map[string]string
}

// Param returns a block parameter by name.
func (b *Block) Param(name string) (string, bool) {
	v, ok := b.Parameters[name]
	return v, ok
}

// IsSubsystem reports whether the block is a subsystem.
func (b *Block) IsSubsystem() bool {
	return b.Type == "SubSystem"
}

// Endpoint identifies one end of a connection, e.g. "12#out:1".
type Endpoint struct {
	BlockSID  string
	PortKind  string // "out", "in", or a special port kind
	PortIndex int
}

// ParseEndpoint parses an endpoint string of the form "<sid>#<kind>:<index>".
func ParseEndpoint(s string) (Endpoint, error) {
	hash := strings.IndexByte(s, '#')
	if hash < 0 {
		return Endpoint{}, errors.Wrapf(errors.ErrParse, "endpoint %q: missing '#'", s)
	}
	colon := strings.IndexByte(s[hash+1:], ':')
	if colon < 0 {
		return Endpoint{}, errors.Wrapf(errors.ErrParse, "endpoint %q: missing ':'", s)
	}
	colon += hash + 1

	idx, err := strconv.Atoi(strings.TrimSpace(s[colon+1:]))
	if err != nil {
		return Endpoint{}, errors.Wrapf(errors.ErrParse, "endpoint %q: bad port index", s)
	}

	return Endpoint{
		BlockSID:  strings.TrimSpace(s[:hash]),
		PortKind:  strings.TrimSpace(s[hash+1 : colon]),
		PortIndex: idx,
	}, nil
}

// String renders the endpoint in wire form.
func (e Endpoint) String() string {
	return e.BlockSID + "#" + e.PortKind + ":" + strconv.Itoa(e.PortIndex)
}

// Branch is one destination of a fanned-out connection.
type Branch struct {
	ZOrder int
	Points []int
	Dst    string
}

// Connection is a line between block ports, possibly branching to
// several destinations.
type Connection struct {
	Name   string
	ZOrder int
	Labels string
	Src    string
	Dst    string
	Points []int

	Branches []Branch
}

// SourceEndpoint parses the connection source.
func (c *Connection) SourceEndpoint() (Endpoint, error) {
	return ParseEndpoint(c.Src)
}

// DestinationEndpoints parses every destination, direct or branched.
func (c *Connection) DestinationEndpoints() []Endpoint {
	var eps []Endpoint
	if c.Dst != "" {
		if ep, err := ParseEndpoint(c.Dst); err == nil {
			eps = append(eps, ep)
		}
	}
	for _, br := range c.Branches {
		if ep, err := ParseEndpoint(br.Dst); err == nil {
			eps = append(eps, ep)
		}
	}
	return eps
}

// System is one diagram: a set of blocks and the connections between them.
type System struct {
	ID       string
	Name     string
	Location []int

	ZoomFactor       int
	SIDHighWatermark int
	Open             string
	ReportName       string

	Blocks      []Block
	Connections []Connection
}

// FindBlockBySID returns the block with the given SID, or nil.
func (s *System) FindBlockBySID(sid string) *Block {
	for i := range s.Blocks {
		if s.Blocks[i].SID == sid {
			return &s.Blocks[i]
		}
	}
	return nil
}

// Inports returns the system's Inport blocks.
func (s *System) Inports() []*Block {
	return s.blocksOfType("Inport")
}

// Outports returns the system's Outport blocks.
func (s *System) Outports() []*Block {
	return s.blocksOfType("Outport")
}

// Subsystems returns the system's SubSystem blocks.
func (s *System) Subsystems() []*Block {
	return s.blocksOfType("SubSystem")
}

func (s *System) blocksOfType(blockType string) []*Block {
	var out []*Block
	for i := range s.Blocks {
		if s.Blocks[i].Type == blockType {
			out = append(out, &s.Blocks[i])
		}
	}
	return out
}

// Model is a fully loaded MDL file.
type Model struct {
	UUID        string
	LibraryType string
	Name        string
	RootRef     string

	Systems map[string]*System

	// Raw container contents, kept for lossless reconstruction.
	PartOrder []string
	RawParts  map[string]string
}

// RootSystem returns the top-level system, or nil.
func (m *Model) RootSystem() *System {
	if m.RootRef != "" {
		if sys, ok := m.Systems[m.RootRef]; ok {
			return sys
		}
	}
	return m.Systems[RootSystemID]
}

// System returns a system by id, or nil.
func (m *Model) System(id string) *System {
	return m.Systems[id]
}

// ParseIntArray parses "[a, b, c]" style integer arrays.
func ParseIntArray(s string) []int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.ReplaceAll(s, ",", " ")

	var out []int
	for _, field := range strings.Fields(s) {
		if n, err := strconv.Atoi(field); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// FormatIntArray renders integers back into "[a, b, c]" form.
func FormatIntArray(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
