// Package report renders the dependency graph of a commonify run.
//
// Converted packages are drawn as white boxes, converted packages that
// already existed in the registry as grey boxes, and dependencies that were
// kept unchanged (ignored or not ES modules) as dashed boxes. Edges follow
// the dependencies declared in the rewritten manifests.
//
//	dot := report.ToDOT(run, report.Options{})
//	svg, err := report.RenderSVG(ctx, dot)
package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mifi/commonify/pkg/session"
)

// Options configures graph rendering.
type Options struct {
	// Detailed adds the source coordinate and depth to converted nodes.
	Detailed bool
}

type nodeKind int

const (
	converted nodeKind = iota
	existing
	unchanged
)

// ToDOT converts a run to Graphviz DOT format.
func ToDOT(run *session.Run, opts Options) string {
	kinds := make(map[string]nodeKind)
	labels := make(map[string]string)
	var order []string
	add := func(id string, kind nodeKind, label string) {
		if _, ok := kinds[id]; ok {
			return
		}
		kinds[id] = kind
		labels[id] = label
		order = append(order, id)
	}

	for _, p := range run.Packages {
		label := p.Result.Name + "\n" + p.Result.Version
		if opts.Detailed {
			label += fmt.Sprintf("\nfrom %s\ndepth: %d", p.Source, p.Depth)
		}
		add(p.Result.String(), converted, label)
	}

	type edge struct {
		from, to string
		dashed   bool
	}
	var edges []edge
	for _, p := range run.Packages {
		renamed := make(map[string]bool, len(p.Edges))
		for _, e := range p.Edges {
			renamed[e.To] = true
		}
		for _, d := range p.Dependencies {
			id := d.Name + "@" + d.Version
			if renamed[d.Name] {
				add(id, existing, d.Name+"\n"+d.Version)
			} else {
				add(id, unchanged, d.Name+"\n"+d.Version)
			}
			edges = append(edges, edge{from: p.Result.String(), to: id, dashed: !renamed[d.Name]})
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range order {
		attrs := []string{fmt.Sprintf("label=%q", labels[id])}
		switch kinds[id] {
		case existing:
			attrs = append(attrs, "fillcolor=lightgrey")
		case unchanged:
			attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=dimgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if e.dashed {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.from, e.to)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based size attributes with a
// zero-origin viewBox so the SVG scales when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
