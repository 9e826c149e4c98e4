package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameSet is an insertion-ordered set of names keyed by their lowercased form.
// The first spelling seen for a key is the one kept.
type nameSet struct {
	keys  map[string]struct{}
	names []string
}

func (s *nameSet) add(key, name string) {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	if _, ok := s.keys[key]; ok {
		return
	}
	s.keys[key] = struct{}{}
	s.names = append(s.names, name)
}

func (s *nameSet) len() int { return len(s.names) }

// record accumulates everything the input says about one known person.
type record struct {
	Name      string
	Relations [numRelations]nameSet
}

// roster holds the known people of one import in encounter order.
// A Caser is stateful, so each roster owns its own.
type roster struct {
	lower  cases.Caser
	index  map[string]int
	people []*record
}

func newRoster() *roster {
	return &roster{
		lower: cases.Lower(language.Und),
		index: make(map[string]int),
	}
}

// key returns the identity used for case-insensitive name comparison.
// Lowercasing never expands ß to ss, so "Strauß" and "Strauss" stay
// distinct while "ÁLVAREZ" and "Álvarez" match.
func (r *roster) key(name string) string {
	return r.lower.String(strings.TrimSpace(name))
}

// add stores a fresh record for an unseen name, or unions the line's
// relationship lists into the existing record. The first display name wins.
func (r *roster) add(line lineRecord) {
	k := r.key(line.Name)
	idx, ok := r.index[k]
	if !ok {
		idx = len(r.people)
		r.index[k] = idx
		r.people = append(r.people, &record{Name: strings.TrimSpace(line.Name)})
	}
	rec := r.people[idx]
	for rel, names := range line.Relations {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			rec.Relations[rel].add(r.key(n), n)
		}
	}
}

// lookup returns the index of a known person.
func (r *roster) lookup(name string) (int, bool) {
	idx, ok := r.index[r.key(name)]
	return idx, ok
}

// known resolves one relationship list of person i to indices of known
// people, dropping unknown names.
func (r *roster) known(i int, rel relation) []int {
	set := &r.people[i].Relations[rel]
	out := make([]int, 0, set.len())
	for _, n := range set.names {
		if idx, ok := r.lookup(n); ok {
			out = append(out, idx)
		}
	}
	return out
}

func (r *roster) len() int { return len(r.people) }
