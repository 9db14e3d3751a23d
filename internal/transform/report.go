package transform

// RenameKind identifies what a Rename applies to
type RenameKind string

const (
	RenamedModel RenameKind = "model"
	RenamedField RenameKind = "field"
	RenamedIndex RenameKind = "index"
)

// Rename records one identifier change
type Rename struct {
	Kind RenameKind
	// Model is the new name of the owning model; empty for models.
	Model string
	From  string
	To    string
}

// Changed reports whether the identifier actually changed
func (r Rename) Changed() bool {
	return r.From != r.To
}

// Report lists the renames of one transform pass in visit order
type Report struct {
	Renames []Rename
}

func (r *Report) add(kind RenameKind, model, from, to string) {
	r.Renames = append(r.Renames, Rename{Kind: kind, Model: model, From: from, To: to})
}

// Changed returns only the renames that altered an identifier
func (r *Report) Changed() []Rename {
	var out []Rename
	for _, rn := range r.Renames {
		if rn.Changed() {
			out = append(out, rn)
		}
	}
	return out
}

// Count returns the number of renames of the given kind
func (r *Report) Count(kind RenameKind) int {
	n := 0
	for _, rn := range r.Renames {
		if rn.Kind == kind {
			n++
		}
	}
	return n
}
