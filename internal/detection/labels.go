package detection

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabelMap maps class ids to human readable labels. It is built once when
// the model loads and never modified afterwards.
type LabelMap struct {
	names []string
}

// NewLabelMap validates names and builds a map where id i is names[i].
func NewLabelMap(names []string) (*LabelMap, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("label map is empty")
	}
	out := make([]string, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("label for class id %d is blank", i)
		}
		out[i] = name
	}
	return &LabelMap{names: out}, nil
}

// Len is the number of classes.
func (m *LabelMap) Len() int { return len(m.names) }

// Label resolves a class id. An id outside the map means the label file does
// not belong to the model and is reported as ErrLoadFailure.
func (m *LabelMap) Label(id int) (string, error) {
	if id < 0 || id >= len(m.names) {
		return "", fmt.Errorf("%w: class id %d outside label map of %d classes", ErrLoadFailure, id, len(m.names))
	}
	return m.names[id], nil
}

// Names returns a copy of the labels in id order.
func (m *LabelMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// datasetFile is the subset of a YOLO dataset description we read.
type datasetFile struct {
	NC    int       `yaml:"nc"`
	Names yaml.Node `yaml:"names"`
}

// LoadLabels reads a label file. Files ending in .yaml or .yml are parsed as
// YOLO dataset descriptions; anything else is one label per line.
func LoadLabels(path string) (*LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseDatasetYAML(data)
	default:
		return ParseLabelLines(data)
	}
}

// ParseLabelLines reads one label per line, skipping blank lines and
// lines starting with '#'.
func ParseLabelLines(data []byte) (*LabelMap, error) {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan label file: %w", err)
	}
	return NewLabelMap(names)
}

// ParseDatasetYAML reads the names entry of a YOLO dataset file. Both the
// list form and the id-keyed mapping form are accepted. Mapping ids must be
// contiguous from zero, and nc, when present, must agree with the names.
func ParseDatasetYAML(data []byte) (*LabelMap, error) {
	var ds datasetFile
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset yaml: %w", err)
	}

	var names []string
	switch ds.Names.Kind {
	case yaml.SequenceNode:
		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("failed to decode names list: %w", err)
		}
	case yaml.MappingNode:
		byID := map[int]string{}
		if err := ds.Names.Decode(&byID); err != nil {
			return nil, fmt.Errorf("failed to decode names mapping: %w", err)
		}
		ids := make([]int, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for i, id := range ids {
			if id != i {
				return nil, fmt.Errorf("names mapping is missing class id %d", i)
			}
			names = append(names, byID[id])
		}
	case 0:
		return nil, fmt.Errorf("dataset yaml has no names entry")
	default:
		return nil, fmt.Errorf("names entry must be a list or a mapping")
	}

	if ds.NC != 0 && ds.NC != len(names) {
		return nil, fmt.Errorf("nc is %d but %d names are listed", ds.NC, len(names))
	}
	return NewLabelMap(names)
}
