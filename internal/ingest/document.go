package ingest

import (
	"strings"

	"github.com/google/uuid"
)

// newPersonID returns an uppercase hyphenated UUID.
func newPersonID() string {
	return strings.ToUpper(uuid.NewString())
}

// buildDocument turns the leveled roster into output people in encounter
// order. Every relationship list is filtered to known people and each entry
// is written with the display name of the person it resolves to.
func buildDocument(r *roster, levels []int, newID func() string) Document {
	doc := make(Document, 0, r.len())
	for i, rec := range r.people {
		doc = append(doc, Person{
			ID:       newID(),
			Name:     rec.Name,
			Level:    levels[i],
			Parents:  knownNames(r, i, relParents),
			Spouses:  knownNames(r, i, relSpouses),
			Siblings: knownNames(r, i, relSiblings),
			Children: knownNames(r, i, relChildren),
		})
	}
	return doc
}

func knownNames(r *roster, i int, rel relation) []string {
	idx := r.known(i, rel)
	names := make([]string, 0, len(idx))
	for _, j := range idx {
		names = append(names, r.people[j].Name)
	}
	return names
}
