package oc

import (
	"encoding/json"
	"os"

	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/mdl"
)

// Metadata is the JSON sidecar written next to exported .oc files. It
// captures everything the OC text cannot: the original container part
// ordering, raw part contents, and per-system layout. With it, the
// reverse conversion reproduces the source MDL byte for byte.
type Metadata struct {
	Version   int                       `json:"version"`
	Model     ModelInfo                 `json:"model"`
	PartOrder []string                  `json:"part_order,omitempty"`
	RawParts  map[string]string         `json:"raw_parts"`
	Systems   map[string]SystemMetadata `json:"systems"`
}

type ModelInfo struct {
	UUID        string `json:"uuid"`
	LibraryType string `json:"library_type"`
	Name        string `json:"name"`
}

type SystemMetadata struct {
	Location         []int              `json:"location"`
	ZoomFactor       int                `json:"zoom_factor"`
	SIDHighWatermark int                `json:"sid_highwatermark"`
	Open             string             `json:"open,omitempty"`
	ReportName       string             `json:"report_name,omitempty"`
	Blocks           []BlockMetadata    `json:"blocks"`
	Connections      []ConnectionMeta   `json:"connections"`
}

type BlockMetadata struct {
	SID             string             `json:"sid"`
	Type            string             `json:"type"`
	Name            string             `json:"name"`
	Position        []int              `json:"position"`
	ZOrder          int                `json:"zorder"`
	BackgroundColor string             `json:"background_color,omitempty"`
	SubsystemRef    string             `json:"subsystem_ref,omitempty"`
	PortIn          int                `json:"port_in,omitempty"`
	PortOut         int                `json:"port_out,omitempty"`
	Parameters      map[string]string  `json:"parameters,omitempty"`
	Mask            []MaskParamMeta    `json:"mask,omitempty"`
	MaskDisplayXML  string             `json:"mask_display_xml,omitempty"`
	PortProperties  []PortPropertyMeta `json:"port_properties,omitempty"`
}

type MaskParamMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Prompt      string `json:"prompt"`
	Value       string `json:"value"`
	ShowTooltip string `json:"show_tooltip,omitempty"`
}

type PortPropertyMeta struct {
	PortType   string            `json:"port_type"`
	Index      int               `json:"index"`
	Properties map[string]string `json:"properties"`
}

type ConnectionMeta struct {
	Name     string       `json:"name,omitempty"`
	ZOrder   int          `json:"zorder"`
	Src      string       `json:"src"`
	Dst      string       `json:"dst,omitempty"`
	Labels   string       `json:"labels,omitempty"`
	Points   []int        `json:"points,omitempty"`
	Branches []BranchMeta `json:"branches,omitempty"`
}

type BranchMeta struct {
	ZOrder int    `json:"zorder"`
	Dst    string `json:"dst"`
	Points []int  `json:"points,omitempty"`
}

// BuildMetadata snapshots a parsed model into sidecar form.
func BuildMetadata(model *mdl.Model) *Metadata {
	meta := &Metadata{
		Version: 1,
		Model: ModelInfo{
			UUID:        model.UUID,
			LibraryType: model.LibraryType,
			Name:        model.Name,
		},
		RawParts: map[string]string{},
		Systems:  map[string]SystemMetadata{},
	}

	meta.PartOrder = append(meta.PartOrder, model.PartOrder...)
	for path, content := range model.RawParts {
		meta.RawParts[path] = content
	}

	for id, sys := range model.Systems {
		meta.Systems[id] = buildSystemMetadata(sys)
	}
	return meta
}

func buildSystemMetadata(sys *mdl.System) SystemMetadata {
	sm := SystemMetadata{
		Location:         sys.Location,
		ZoomFactor:       sys.ZoomFactor,
		SIDHighWatermark: sys.SIDHighWatermark,
		Open:             sys.Open,
		ReportName:       sys.ReportName,
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		bm := BlockMetadata{
			SID:            blk.SID,
			Type:           blk.Type,
			Name:           blk.Name,
			Position:       blk.Position,
			ZOrder:         blk.ZOrder,
			SubsystemRef:   blk.SubsystemRef,
			PortIn:         blk.PortIn,
			PortOut:        blk.PortOut,
			MaskDisplayXML: blk.MaskDisplayXML,
		}
		if len(blk.Parameters) > 0 {
			bm.Parameters = make(map[string]string, len(blk.Parameters))
			for k, v := range blk.Parameters {
				bm.Parameters[k] = v
			}
		}
		if bg, ok := blk.Parameters["BackgroundColor"]; ok {
			bm.BackgroundColor = bg
		}
		for _, mp := range blk.MaskParameters {
			bm.Mask = append(bm.Mask, MaskParamMeta{
				Name:        mp.Name,
				Type:        mp.Type,
				Prompt:      mp.Prompt,
				Value:       mp.Value,
				ShowTooltip: mp.ShowTooltip,
			})
		}
		for _, pp := range blk.PortProperties {
			bm.PortProperties = append(bm.PortProperties, PortPropertyMeta{
				PortType:   pp.PortType,
				Index:      pp.Index,
				Properties: pp.Properties,
			})
		}
		sm.Blocks = append(sm.Blocks, bm)
	}

	for i := range sys.Connections {
		conn := &sys.Connections[i]
		cm := ConnectionMeta{
			Name:   conn.Name,
			ZOrder: conn.ZOrder,
			Src:    conn.Src,
			Dst:    conn.Dst,
			Labels: conn.Labels,
			Points: conn.Points,
		}
		for _, br := range conn.Branches {
			cm.Branches = append(cm.Branches, BranchMeta{
				ZOrder: br.ZOrder,
				Dst:    br.Dst,
				Points: br.Points,
			})
		}
		sm.Connections = append(sm.Connections, cm)
	}
	return sm
}

// WriteMetadataFile writes the sidecar as indented JSON.
func WriteMetadataFile(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ReadMetadataFile loads a sidecar written by WriteMetadataFile.
func ReadMetadataFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &meta, nil
}
