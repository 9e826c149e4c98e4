package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_AllFields(t *testing.T) {
	rec, ok := parseLine("NAME: Alice Smith; PARENTS: Bob, Carol; SPOUSES: Dan; SIBLINGS: Eve ,Frank; CHILDREN: Gina")
	require.True(t, ok)

	assert.Equal(t, "Alice Smith", rec.Name)
	assert.Equal(t, []string{"Bob", "Carol"}, rec.Relations[relParents])
	assert.Equal(t, []string{"Dan"}, rec.Relations[relSpouses])
	assert.Equal(t, []string{"Eve", "Frank"}, rec.Relations[relSiblings])
	assert.Equal(t, []string{"Gina"}, rec.Relations[relChildren])
}

func TestParseLine_LabelsCaseInsensitive(t *testing.T) {
	rec, ok := parseLine("name : alice ;parents:Bob;Children :  Carl")
	require.True(t, ok)

	assert.Equal(t, "alice", rec.Name)
	assert.Equal(t, []string{"Bob"}, rec.Relations[relParents])
	assert.Equal(t, []string{"Carl"}, rec.Relations[relChildren])
}

func TestParseLine_OptionalFieldsDefaultEmpty(t *testing.T) {
	rec, ok := parseLine("NAME: Alice")
	require.True(t, ok)
	for rel := relation(0); rel < numRelations; rel++ {
		assert.Empty(t, rec.Relations[rel], rel.String())
	}
}

func TestParseLine_NoRecord(t *testing.T) {
	cases := map[string]string{
		"no name field":  "PARENTS: Bob; CHILDREN: Carl",
		"empty name":     "NAME: ; PARENTS: Bob",
		"blank name":     "NAME:    ",
		"free text":      "The Smith family came from Leeds.",
		"nickname label": "NICKNAME: Al",
	}
	for label, line := range cases {
		t.Run(label, func(t *testing.T) {
			_, ok := parseLine(line)
			assert.False(t, ok)
		})
	}
}

func TestParseLine_DropsEmptyTokens(t *testing.T) {
	rec, ok := parseLine("NAME: Alice; PARENTS: , Bob,, ,Carol,")
	require.True(t, ok)
	assert.Equal(t, []string{"Bob", "Carol"}, rec.Relations[relParents])
}

func TestParseLine_RepeatedLabelLastWins(t *testing.T) {
	rec, ok := parseLine("NAME: Alice; PARENTS: Bob; PARENTS: Carol")
	require.True(t, ok)
	assert.Equal(t, []string{"Carol"}, rec.Relations[relParents])
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("NAME: A\r\n\r\n  NAME: B  \rNAME: C\n\n\t\n")
	assert.Equal(t, []string{"NAME: A", "NAME: B", "NAME: C"}, lines)

	assert.Empty(t, splitLines(" \n\t\r\n "))
}
