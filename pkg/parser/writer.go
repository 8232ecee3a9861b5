package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
	"github.com/gilchrisn/mwcs-module-service/pkg/models"
)

// ModuleRecord is the JSON form of a module with node labels
type ModuleRecord struct {
	Index  int      `json:"index"`
	Weight float64  `json:"weight"`
	Nodes  []string `json:"nodes"`
}

// WriteAssignments writes one "label<TAB>module<TAB>weight" line per node
// of graph, in node order
func WriteAssignments(w io.Writer, graph *models.Graph, result *enumerate.Result) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < graph.NumNodes; i++ {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%g\n", graph.Labels[i], result.ModuleIndex[i], result.ModuleWeight[i]); err != nil {
			return errors.Wrap(err, "write assignments")
		}
	}
	return errors.Wrap(bw.Flush(), "write assignments")
}

// ModuleRecords labels the modules of result with node names of graph
func ModuleRecords(graph *models.Graph, result *enumerate.Result) []ModuleRecord {
	records := make([]ModuleRecord, 0, len(result.Modules))
	for _, m := range result.Modules {
		labels := make([]string, len(m.Nodes))
		for i, n := range m.Nodes {
			labels[i] = graph.Labels[n]
		}
		records = append(records, ModuleRecord{Index: m.Index, Weight: m.Weight, Nodes: labels})
	}
	return records
}

// WriteModules writes the module list as indented JSON
func WriteModules(w io.Writer, graph *models.Graph, result *enumerate.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(ModuleRecords(graph, result)), "encode modules")
}

// WriteJSONGraph writes g in the JSON exchange format
func WriteJSONGraph(w io.Writer, g *models.Graph) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(NewJSONGraph(g)), "encode graph")
}

// WriteGraphFiles saves g as <prefix>.nodes and <prefix>.edges in the
// format read by ReadGraph
func WriteGraphFiles(prefix string, g *models.Graph) error {
	if err := writeFile(prefix+".nodes", func(w *bufio.Writer) error {
		fmt.Fprintf(w, "#label\tscore\n")
		for i := 0; i < g.NumNodes; i++ {
			if _, err := fmt.Fprintf(w, "%s\t%g\n", g.Labels[i], g.Scores[i]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return writeFile(prefix+".edges", func(w *bufio.Writer) error {
		fmt.Fprintf(w, "#label1\tlabel2\n")
		for i := 0; i < g.NumNodes; i++ {
			for _, j := range g.Adjacency[i] {
				if i < j {
					if _, err := fmt.Fprintf(w, "%s\t%s\n", g.Labels[i], g.Labels[j]); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func writeFile(path string, fill func(w *bufio.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := fill(w); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(w.Flush(), "flush %s", path)
}

// WriteProvenance writes "reducedLabel<TAB>label,label,..." per node of a
// reduced graph, naming the nodes of source each one stands for
func WriteProvenance(w io.Writer, reduced *models.Graph, nodeMap models.NodeMap, source *models.Graph) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < reduced.NumNodes; i++ {
		labels := make([]string, len(nodeMap[i]))
		for j, n := range nodeMap[i] {
			labels[j] = source.Labels[n]
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", reduced.Labels[i], strings.Join(labels, ",")); err != nil {
			return errors.Wrap(err, "write provenance")
		}
	}
	return errors.Wrap(bw.Flush(), "write provenance")
}
