// Package sourcemap builds and encodes revision 3 source maps.
package sourcemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Map is the JSON document written next to a compiled asset.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping links a generated position to an original position.
// Lines and columns are zero-based.
type Mapping struct {
	GenLine int
	GenCol  int
	Source  int
	SrcLine int
	SrcCol  int
}

// Builder accumulates sources and mappings for one generated file.
type Builder struct {
	sources  []string
	contents []string
	index    map[string]int
	mappings []Mapping
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddSource registers a source file and returns its index. Registering the
// same name twice returns the first index.
func (b *Builder) AddSource(name, content string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.sources)
	b.index[name] = i
	b.sources = append(b.sources, name)
	b.contents = append(b.contents, content)
	return i
}

// Add records a mapping.
func (b *Builder) Add(m Mapping) {
	b.mappings = append(b.mappings, m)
}

// Len returns the number of recorded mappings.
func (b *Builder) Len() int {
	return len(b.mappings)
}

// Map encodes the accumulated state. file is the generated file name as it
// should appear in the map.
func (b *Builder) Map(file string, withContent bool) *Map {
	m := &Map{
		Version:  3,
		File:     file,
		Sources:  append([]string{}, b.sources...),
		Names:    []string{},
		Mappings: Encode(b.mappings),
	}
	if withContent {
		m.SourcesContent = append([]string{}, b.contents...)
	}
	return m
}

// Marshal renders the map as JSON.
func (m *Map) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode source map: %w", err)
	}
	return data, nil
}

// Parse decodes a JSON source map.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode source map: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// Encode renders mappings into the "mappings" field format. Mappings are
// ordered by generated position first.
func Encode(mappings []Mapping) string {
	sorted := append([]Mapping{}, mappings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GenLine != sorted[j].GenLine {
			return sorted[i].GenLine < sorted[j].GenLine
		}
		return sorted[i].GenCol < sorted[j].GenCol
	})

	var sb strings.Builder
	var prevSource, prevSrcLine, prevSrcCol int
	line, prevGenCol := 0, 0
	first := true

	for _, m := range sorted {
		for line < m.GenLine {
			sb.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false

		writeVLQ(&sb, m.GenCol-prevGenCol)
		writeVLQ(&sb, m.Source-prevSource)
		writeVLQ(&sb, m.SrcLine-prevSrcLine)
		writeVLQ(&sb, m.SrcCol-prevSrcCol)

		prevGenCol = m.GenCol
		prevSource = m.Source
		prevSrcLine = m.SrcLine
		prevSrcCol = m.SrcCol
	}
	return sb.String()
}

// Decode parses a "mappings" field. Segments with a single field (generated
// column only) are skipped.
func Decode(mappings string) ([]Mapping, error) {
	var out []Mapping
	var source, srcLine, srcCol int

	for line, group := range strings.Split(mappings, ";") {
		genCol := 0
		if group == "" {
			continue
		}
		for _, seg := range strings.Split(group, ",") {
			fields, err := readVLQs(seg)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if len(fields) == 0 {
				continue
			}
			genCol += fields[0]
			if len(fields) < 4 {
				continue
			}
			source += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			out = append(out, Mapping{
				GenLine: line,
				GenCol:  genCol,
				Source:  source,
				SrcLine: srcLine,
				SrcCol:  srcCol,
			})
		}
	}
	return out, nil
}
