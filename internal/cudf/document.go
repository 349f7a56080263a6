package cudf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Package is one CUDF package stanza: a (name, dense-integer version) pair
// plus the fields the spec's universe encoding needs.
type Package struct {
	Name      string
	Version   int
	Depends   []OrClause // each clause is OR'd; clauses themselves are ANDed
	Conflicts []string   // "name = version" atoms
	Installed bool
	Keep      bool
}

// OrClause is a disjunction of "name = version" atoms.
type OrClause []string

// PackageRef names a single (name, version) pair, as decoded from a
// solution or diagnostic document.
type PackageRef struct {
	Name    string
	Version int
}

// Request is the CUDF request stanza: install the given package at the
// given exact version.
type Request struct {
	InstallName    string
	InstallVersion int
}

// Universe is the full CUDF document this package writes: a preamble, the
// package stanzas, and a request stanza.
type Universe struct {
	Packages []Package
	Request  Request
}

// WriteTo serializes the universe to w in CUDF text form.
func (u *Universe) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	if err := writeField(cw, "preamble", ""); err != nil {
		return cw.n, err
	}
	if err := writeBlank(cw); err != nil {
		return cw.n, err
	}

	for _, p := range u.Packages {
		if err := writePackage(cw, p); err != nil {
			return cw.n, err
		}
		if err := writeBlank(cw); err != nil {
			return cw.n, err
		}
	}

	if err := writeField(cw, "request", ""); err != nil {
		return cw.n, err
	}
	if err := writeField(cw, "install", fmt.Sprintf("%s = %d", u.Request.InstallName, u.Request.InstallVersion)); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func writePackage(w io.Writer, p Package) error {
	if err := writeField(w, "package", p.Name); err != nil {
		return err
	}
	if err := writeField(w, "version", strconv.Itoa(p.Version)); err != nil {
		return err
	}
	if len(p.Depends) > 0 {
		clauses := make([]string, len(p.Depends))
		for i, c := range p.Depends {
			clauses[i] = strings.Join(c, " | ")
		}
		if err := writeField(w, "depends", strings.Join(clauses, ", ")); err != nil {
			return err
		}
	}
	if len(p.Conflicts) > 0 {
		if err := writeField(w, "conflicts", strings.Join(p.Conflicts, ", ")); err != nil {
			return err
		}
	}
	if err := writeField(w, "installed", strconv.FormatBool(p.Installed)); err != nil {
		return err
	}
	if p.Keep {
		if err := writeField(w, "keep", "version"); err != nil {
			return err
		}
	}
	return nil
}

// ParseSolution parses a solver's stdout: the set of package stanzas marked
// installed: true.
func ParseSolution(r io.Reader) ([]PackageRef, error) {
	stanzas, err := readStanzas(r)
	if err != nil {
		return nil, err
	}

	var refs []PackageRef
	for _, s := range stanzas {
		name, ok := s.get("package")
		if !ok {
			continue
		}
		installedRaw, _ := s.get("installed")
		if strings.TrimSpace(installedRaw) != "true" {
			continue
		}
		versionRaw, ok := s.get("version")
		if !ok {
			return nil, fmt.Errorf("package %s stanza missing version", name)
		}
		v, err := strconv.Atoi(versionRaw)
		if err != nil {
			return nil, fmt.Errorf("package %s has non-integer version %q: %w", name, versionRaw, err)
		}
		refs = append(refs, PackageRef{Name: name, Version: v})
	}
	return refs, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
