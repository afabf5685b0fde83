package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/medcat/internal/types"
)

// recordFile accepts the legacy nameEs field as an alias of localizedName
type recordFile struct {
	types.ContentRecord `yaml:",inline"`
	NameEs              string `json:"nameEs,omitempty" yaml:"nameEs,omitempty"`
}

func (f recordFile) record() types.ContentRecord {
	rec := f.ContentRecord
	if rec.LocalizedName == "" {
		rec.LocalizedName = f.NameEs
	}
	return rec
}

// utf8BOM is written by some Windows editors and is not valid JSON
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeRecords parses one content file. The format follows the extension
// (.json, .yaml, .yml) and the file may hold a single record or a list.
func DecodeRecords(name string, data []byte) ([]types.ContentRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return decodeJSON(data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	}
	return nil, fmt.Errorf("unsupported content file type %q", path.Ext(name))
}

func decodeJSON(data []byte) ([]types.ContentRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var files []recordFile
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &files); err != nil {
			return nil, err
		}
	} else {
		var one recordFile
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		files = append(files, one)
	}
	return records(files), nil
}

func decodeYAML(data []byte) ([]types.ContentRecord, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	var files []recordFile
	if root.Kind == yaml.SequenceNode {
		if err := root.Decode(&files); err != nil {
			return nil, err
		}
	} else {
		var one recordFile
		if err := root.Decode(&one); err != nil {
			return nil, err
		}
		files = append(files, one)
	}
	return records(files), nil
}

func records(files []recordFile) []types.ContentRecord {
	out := make([]types.ContentRecord, len(files))
	for i, f := range files {
		out[i] = f.record()
	}
	return out
}
