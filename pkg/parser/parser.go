package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// JSONNode is a node of the JSON graph format
type JSONNode struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// JSONGraph is the JSON exchange format used by the HTTP service
type JSONGraph struct {
	Nodes []JSONNode  `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// ReadNodes parses a node file. Every line holds a label and a score;
// blank lines and lines starting with # are skipped.
func ReadNodes(r io.Reader) (*models.Graph, error) {
	g := models.NewGraph(0)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, errors.Errorf("line %d: expected label and score, got %q", lineNo, line)
		}
		score, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid score for node %s", lineNo, parts[0])
		}
		if _, err := g.AddNode(parts[0], score); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
	}

	return g, errors.Wrap(scanner.Err(), "read nodes")
}

// ReadEdges adds the edges of an edge file to g. Every line holds two node
// labels, further columns are ignored. Self loops are dropped.
func ReadEdges(r io.Reader, g *models.Graph) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return errors.Errorf("line %d: expected two node labels, got %q", lineNo, line)
		}
		u, ok := g.NodeByLabel(parts[0])
		if !ok {
			return errors.Errorf("line %d: unknown node %s", lineNo, parts[0])
		}
		v, ok := g.NodeByLabel(parts[1])
		if !ok {
			return errors.Errorf("line %d: unknown node %s", lineNo, parts[1])
		}
		if u == v {
			continue
		}
		if err := g.AddEdge(u, v); err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
	}

	return errors.Wrap(scanner.Err(), "read edges")
}

// ReadGraph loads a graph from a node file and an edge file
func ReadGraph(nodesFile, edgesFile string) (*models.Graph, error) {
	nf, err := os.Open(nodesFile)
	if err != nil {
		return nil, errors.Wrap(err, "open node file")
	}
	defer nf.Close()

	g, err := ReadNodes(nf)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", nodesFile)
	}

	ef, err := os.Open(edgesFile)
	if err != nil {
		return nil, errors.Wrap(err, "open edge file")
	}
	defer ef.Close()

	if err := ReadEdges(ef, g); err != nil {
		return nil, errors.Wrapf(err, "parse %s", edgesFile)
	}
	return g, nil
}

// ReadJSONGraph decodes a graph in the JSON exchange format
func ReadJSONGraph(r io.Reader) (*models.Graph, error) {
	var jg JSONGraph
	if err := json.NewDecoder(r).Decode(&jg); err != nil {
		return nil, errors.Wrap(err, "decode graph JSON")
	}
	return jg.Graph()
}

// Graph builds the model graph. Edges must refer to declared nodes.
func (jg JSONGraph) Graph() (*models.Graph, error) {
	g := models.NewGraph(len(jg.Nodes))
	for i, n := range jg.Nodes {
		if _, err := g.AddNode(n.Label, n.Score); err != nil {
			return nil, errors.Wrapf(err, "node %d", i)
		}
	}

	for i, e := range jg.Edges {
		u, ok := g.NodeByLabel(e[0])
		if !ok {
			return nil, errors.Errorf("edge %d: unknown node %s", i, e[0])
		}
		v, ok := g.NodeByLabel(e[1])
		if !ok {
			return nil, errors.Errorf("edge %d: unknown node %s", i, e[1])
		}
		if err := g.AddEdge(u, v); err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
	}
	return g, nil
}

// NewJSONGraph converts g into the JSON exchange format
func NewJSONGraph(g *models.Graph) JSONGraph {
	jg := JSONGraph{
		Nodes: make([]JSONNode, g.NumNodes),
		Edges: make([][2]string, 0, g.NumEdges()),
	}
	for i := 0; i < g.NumNodes; i++ {
		jg.Nodes[i] = JSONNode{Label: g.Labels[i], Score: g.Scores[i]}
		for _, j := range g.Adjacency[i] {
			if i < j {
				jg.Edges = append(jg.Edges, [2]string{g.Labels[i], g.Labels[j]})
			}
		}
	}
	return jg
}
