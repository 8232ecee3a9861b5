package parser

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

const nodesText = `#label	score
a	3
b	-1.5
c	4

d	0
`

const edgesText = `#label1	label2
a	b	0.9
b	c
c	a
c	c
b	a
`

func TestReadNodesAndEdges(t *testing.T) {
	g, err := ReadNodes(strings.NewReader(nodesText))
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumNodes)
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Labels)
	assert.Equal(t, -1.5, g.Scores[1])

	require.NoError(t, ReadEdges(strings.NewReader(edgesText), g))
	assert.Equal(t, 3, g.NumEdges())
	assert.True(t, g.HasEdge(0, 2))
	assert.Equal(t, 0, g.Degree(3))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		nodes string
		edges string
	}{
		{"missing score", "a\n", ""},
		{"bad score", "a x\n", ""},
		{"duplicate label", "a 1\na 2\n", ""},
		{"unknown node", "a 1\n", "a z\n"},
		{"short edge line", "a 1\n", "a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadNodes(strings.NewReader(tt.nodes))
			if tt.edges == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Error(t, ReadEdges(strings.NewReader(tt.edges), g))
		})
	}
}

func TestJSONGraphRoundTrip(t *testing.T) {
	input := `{"nodes":[{"label":"a","score":1},{"label":"b","score":-2}],"edges":[["a","b"]]}`
	g, err := ReadJSONGraph(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumNodes)
	assert.True(t, g.HasEdge(0, 1))

	var buf bytes.Buffer
	require.NoError(t, WriteJSONGraph(&buf, g))
	back, err := ReadJSONGraph(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Labels, back.Labels)
	assert.Equal(t, g.Scores, back.Scores)
	assert.Equal(t, 1, back.NumEdges())

	_, err = ReadJSONGraph(strings.NewReader(`{"nodes":[{"label":"a"}],"edges":[["a","q"]]}`))
	assert.Error(t, err)
}

func TestGraphFilesRoundTrip(t *testing.T) {
	g, err := ReadNodes(strings.NewReader(nodesText))
	require.NoError(t, err)
	require.NoError(t, ReadEdges(strings.NewReader(edgesText), g))

	prefix := filepath.Join(t.TempDir(), "reduced")
	require.NoError(t, WriteGraphFiles(prefix, g))

	back, err := ReadGraph(prefix+".nodes", prefix+".edges")
	require.NoError(t, err)
	assert.Equal(t, g.Labels, back.Labels)
	assert.Equal(t, g.Scores, back.Scores)
	assert.Equal(t, g.NumEdges(), back.NumEdges())

	_, err = ReadGraph(prefix+".missing", prefix+".edges")
	assert.Error(t, err)
}

func TestWriteAssignmentsAndModules(t *testing.T) {
	g := models.NewGraph(3)
	g.AddNode("a", 3)
	g.AddNode("b", 2)
	g.AddNode("c", -1)

	result := &enumerate.Result{
		Modules:      []models.Module{{Index: 0, Nodes: []int{0, 1}, Weight: 5}},
		ModuleIndex:  []int{0, 0, enumerate.Unassigned},
		ModuleWeight: []float64{5, 5, 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAssignments(&buf, g, result))
	assert.Equal(t, "a\t0\t5\nb\t0\t5\nc\t-1\t0\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteModules(&buf, g, result))
	var records []ModuleRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, []string{"a", "b"}, records[0].Nodes)
	assert.Equal(t, 5.0, records[0].Weight)
}

func TestWriteProvenance(t *testing.T) {
	source := models.NewGraph(3)
	source.AddNode("a", 1)
	source.AddNode("b", 2)
	source.AddNode("c", -4)

	reduced := models.NewGraph(1)
	reduced.AddNode("b|a", 3)

	var buf bytes.Buffer
	require.NoError(t, WriteProvenance(&buf, reduced, models.NodeMap{{0, 1}}, source))
	assert.Equal(t, "b|a\ta,b\n", buf.String())
}
