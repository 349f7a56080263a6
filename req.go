package solve

import "fmt"

// Req is a requirement: a package name paired with a VersionSpec predicate,
// plus the display string it was parsed from. Two Reqs are equal iff their
// String() forms are equal.
type Req struct {
	Name string
	Spec VersionSpec
	raw  string
}

// NewReq builds a Req from a name and a spec string.
func NewReq(name, spec string) (Req, error) {
	vs, err := ParseVersionSpec(spec)
	if err != nil {
		return Req{}, err
	}
	return Req{
		Name: name,
		Spec: vs,
		raw:  fmt.Sprintf("%s %s", name, vs.String()),
	}, nil
}

// String is the canonical display form of the requirement, e.g. "foo ^1.0".
func (r Req) String() string {
	if r.raw != "" {
		return r.raw
	}
	return fmt.Sprintf("%s %s", r.Name, r.Spec.String())
}

// Equal reports whether two Reqs have identical string forms.
func (r Req) Equal(other Req) bool {
	return r.String() == other.String()
}

// Resolutions overrides a requirement for a given package name wholesale,
// wherever it's encountered during universe construction.
type Resolutions map[string]Req

// Apply returns resolutions[req.Name] if present, else req unchanged.
func (r Resolutions) Apply(req Req) Req {
	if r == nil {
		return req
	}
	if override, ok := r[req.Name]; ok {
		return override
	}
	return req
}

// ApplyAll rewrites every requirement in reqs through the overrides.
func (r Resolutions) ApplyAll(reqs []Req) []Req {
	if len(reqs) == 0 {
		return reqs
	}
	out := make([]Req, len(reqs))
	for i, req := range reqs {
		out[i] = r.Apply(req)
	}
	return out
}
