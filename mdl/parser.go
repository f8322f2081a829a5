package mdl

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/logger"
)

// Load reads and parses an MDL file from disk. The model name is
// derived from the file stem.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	model, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	base := filepath.Base(path)
	model.Name = strings.TrimSuffix(base, filepath.Ext(base))
	return model, nil
}

// Parse parses MDL container data into a Model.
func Parse(data string) (*Model, error) {
	parts, err := SplitParts(data)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Systems:  make(map[string]*System),
		RawParts: make(map[string]string),
	}
	_, byPath := PartMap(parts)
	for _, p := range parts {
		// The BASE64 flag rides along in the key so the container can
		// be reconstructed byte for byte.
		model.PartOrder = append(model.PartOrder, partKey(p))
		model.RawParts[partKey(p)] = p.Content
	}

	if bd, ok := byPath["/simulink/blockdiagram.xml"]; ok {
		uuid, libraryType, rootRef, err := ParseBlockDiagram(bd.Content)
		if err != nil {
			return nil, err
		}
		model.UUID = uuid
		model.LibraryType = libraryType
		model.RootRef = rootRef
	} else {
		logger.Warnw("Container has no blockdiagram part")
	}

	for _, sysPath := range SystemParts(parts) {
		id := SystemID(sysPath)
		sys, err := ParseSystemXML(id, byPath[sysPath].Content)
		if err != nil {
			return nil, err
		}
		model.Systems[id] = sys
	}

	logger.Debugw("Parsed MDL container",
		"parts", len(parts),
		"systems", len(model.Systems),
		"uuid", model.UUID)

	return model, nil
}

func partKey(p Part) string {
	if p.Base64 {
		return p.Path + " BASE64"
	}
	return p.Path
}
