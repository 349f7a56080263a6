package cudf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReasonKind is the closed sum of diagnostic variants the external solver
// can emit on an unsatisfiable run. Other is a catch-all the explanation
// engine ignores, so a solver's diagnostic vocabulary can grow without
// breaking this parser.
type ReasonKind string

const (
	KindMissing    ReasonKind = "missing"
	KindConflict   ReasonKind = "conflict"
	KindDependency ReasonKind = "dependency"
	KindOther      ReasonKind = "other"
)

// UnmetDep names one entry in a Missing diagnostic's unmet-dependency list:
// a package name and the (unresolved) spec string that named it.
type UnmetDep struct {
	Name string
	Spec string
}

// DepEdge names one entry in a Dependency diagnostic's resolved edge list: a
// package name at the specific version chosen for the attempted assignment.
type DepEdge struct {
	Name    string
	Version int
}

// Diagnostic is one low-level reason reported by the external solver,
// decoded from a single stanza.
type Diagnostic struct {
	Kind ReasonKind

	// Package/Version identify the package the diagnostic concerns: the
	// unsatisfied package for Missing, one side of the clash for Conflict,
	// the depender for Dependency.
	Package string
	Version int

	Unmet []UnmetDep // Missing only
	Edges []DepEdge  // Dependency only

	Other        string // Conflict only: the other package's name
	OtherVersion int    // Conflict only

	Detail string // Other only: free-form text
}

// ParseDiagnostics parses a solver's diagnostic stream (emitted on the
// documented "unsatisfiable" exit) into a Diagnostic per stanza, in the
// order the solver wrote them.
func ParseDiagnostics(r io.Reader) ([]Diagnostic, error) {
	stanzas, err := readStanzas(r)
	if err != nil {
		return nil, err
	}

	diags := make([]Diagnostic, 0, len(stanzas))
	for _, s := range stanzas {
		kindRaw, ok := s.get("reason")
		if !ok {
			continue
		}
		d := Diagnostic{Kind: ReasonKind(kindRaw)}
		switch d.Kind {
		case KindMissing, KindConflict, KindDependency, KindOther:
		default:
			d.Kind = KindOther
		}

		if name, ok := s.get("package"); ok {
			d.Package = name
		}
		if vraw, ok := s.get("version"); ok {
			v, err := strconv.Atoi(vraw)
			if err != nil {
				return nil, fmt.Errorf("diagnostic for %s has non-integer version %q: %w", d.Package, vraw, err)
			}
			d.Version = v
		}

		switch d.Kind {
		case KindMissing:
			for _, item := range s.list("unmet") {
				name, spec, ok := strings.Cut(item, "|")
				if !ok {
					name, spec = item, "*"
				}
				d.Unmet = append(d.Unmet, UnmetDep{Name: strings.TrimSpace(name), Spec: strings.TrimSpace(spec)})
			}
		case KindConflict:
			if other, ok := s.get("other"); ok {
				d.Other = other
			}
			if vraw, ok := s.get("otherversion"); ok {
				v, err := strconv.Atoi(vraw)
				if err != nil {
					return nil, fmt.Errorf("conflict diagnostic has non-integer otherversion %q: %w", vraw, err)
				}
				d.OtherVersion = v
			}
		case KindDependency:
			for _, item := range s.list("deps") {
				name, vraw, ok := strings.Cut(item, "=")
				if !ok {
					continue
				}
				v, err := strconv.Atoi(strings.TrimSpace(vraw))
				if err != nil {
					return nil, fmt.Errorf("dependency edge %q has non-integer version: %w", item, err)
				}
				d.Edges = append(d.Edges, DepEdge{Name: strings.TrimSpace(name), Version: v})
			}
		case KindOther:
			if detail, ok := s.get("detail"); ok {
				d.Detail = detail
			}
		}

		diags = append(diags, d)
	}
	return diags, nil
}

// DoseDummyRequest is the synthetic node name the explanation engine ignores
// when walking Dependency diagnostics, matching the real CUDF solver's own
// internal request wrapper.
const DoseDummyRequest = "dose-dummy-request"
