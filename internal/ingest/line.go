package ingest

import (
	"regexp"
	"strings"
)

// labelRE matches one `LABEL: value` field. The value runs to the next
// semicolon or the end of the line.
var labelRE = regexp.MustCompile(`(?i)\b(NAME|PARENTS|SPOUSES|SIBLINGS|CHILDREN)\s*:\s*([^;]*)`)

// relation indexes the four relationship lists of a person.
type relation int

const (
	relParents relation = iota
	relSpouses
	relSiblings
	relChildren
	numRelations
)

func (r relation) String() string {
	switch r {
	case relParents:
		return "parents"
	case relSpouses:
		return "spouses"
	case relSiblings:
		return "siblings"
	case relChildren:
		return "children"
	}
	return "unknown"
}

var labelRelations = map[string]relation{
	"PARENTS":  relParents,
	"SPOUSES":  relSpouses,
	"SIBLINGS": relSiblings,
	"CHILDREN": relChildren,
}

// lineRecord is what a single line says about its subject.
type lineRecord struct {
	Name      string
	Relations [numRelations][]string
}

// parseLine extracts the labeled fields of one line. It reports false when
// the line has no NAME field or the name is blank. When a label repeats
// within a line the last occurrence wins.
func parseLine(line string) (lineRecord, bool) {
	var rec lineRecord
	for _, m := range labelRE.FindAllStringSubmatch(line, -1) {
		label := strings.ToUpper(m[1])
		value := strings.TrimSpace(m[2])
		if label == "NAME" {
			rec.Name = value
			continue
		}
		rec.Relations[labelRelations[label]] = splitNames(value)
	}
	if rec.Name == "" {
		return lineRecord{}, false
	}
	return rec, true
}

// splitNames splits a comma separated value into trimmed, non-empty names.
func splitNames(value string) []string {
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// splitLines breaks text on any line ending and drops blank lines.
func splitLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
