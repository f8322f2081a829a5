package schema

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/da0x/oc/errors"
)

// Document is the loosely-typed form of a schema file as read back
// from disk. Group keys other than metadata map to signal groups or
// function tables.
type Document struct {
	Metadata DocumentMetadata     `yaml:"metadata"`
	In       *SignalGroup         `yaml:"IN"`
	Config   *SignalGroup         `yaml:"CONFIG"`
	Out      *SignalGroup         `yaml:"OUT"`
	State    *SignalGroup         `yaml:"STATE"`
	Funcs    map[string]FuncEntry `yaml:"FUNCTIONS"`
}

type DocumentMetadata struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Revision      int    `yaml:"revision"`
	FormatVersion Scalar `yaml:"format_version"`
	Description   string `yaml:"description"`
	ParentLibrary string `yaml:"parent_library"`
	Category      string `yaml:"category"`
}

// Scalar keeps the literal text of a YAML scalar. Defaults mix floats
// ("0.001") and code literals ("0.0f"), so decoding to a typed field
// would reject one or the other.
type Scalar string

func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	*s = Scalar(node.Value)
	return nil
}

type SignalGroup struct {
	Use         string                 `yaml:"use"`
	Description string                 `yaml:"description"`
	Signals     map[string]SignalEntry `yaml:"signals"`
}

type SignalEntry struct {
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Array       int    `yaml:"array"`
	Default     Scalar `yaml:"default"`
	Units       string `yaml:"units"`
}

type FuncEntry struct {
	In     map[string]SignalEntry `yaml:"IN"`
	Out    map[string]SignalEntry `yaml:"OUT"`
	State  map[string]SignalEntry `yaml:"STATE"`
	Config map[string]SignalEntry `yaml:"CONFIG"`
}

// Parse decodes a schema document from YAML text.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding schema")
	}
	return &doc, nil
}

// Load reads and decodes a schema file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data)
}
