package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStore(StoreConfig{DBPath: ":memory:"})
	require.NoError(t, err, "creating test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func newFamily(t *testing.T, s Store, name string) string {
	t.Helper()
	got, err := s.CreateFamily(context.Background(), name)
	require.NoError(t, err)
	return got
}

const sampleTree = `[{"id":"A","name":"Alice","level":0,"parents":[],"spouses":[],"siblings":[],"children":[],"imageName":"","isImplicit":false}]`

func TestSanitizeFamilyName(t *testing.T) {
	cases := map[string]string{
		"":              "_",
		"   ":           "_",
		" The Smiths ":  "The_Smiths",
		`a/b\c:d*e?f"g`: "a_b_c_d_e_f_g",
		"<x>|y":         "_x__y",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFamilyName(in), in)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"":            "file.json",
		"tree":        "tree.json",
		"my tree":     "my_tree.json",
		"Tree.JSON":   "Tree.JSON",
		"../etc/pass": ".._etc_pass.json",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}

func TestNewStore_OnDiskReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "lineage.db")

	s, err := NewStore(StoreConfig{DBPath: path})
	require.NoError(t, err)
	_, err = s.CreateFamily(ctx, "Smith")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(StoreConfig{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	families, err := s.ListFamilies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith"}, families)
}

func TestFamilies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.Equal(t, "The_Smiths", newFamily(t, s, " The Smiths "))
	newFamily(t, s, "Andersons")

	_, err := s.CreateFamily(ctx, "the smiths")
	require.ErrorIs(t, err, ErrExists, "names collide ignoring case")

	_, err = s.CreateFamily(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidName)

	families, err := s.ListFamilies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Andersons", "The_Smiths"}, families)

	ok, err := s.FamilyExists(ctx, "THE SMITHS")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.FamilyExists(ctx, "Jones")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.FamilyExists(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteFamily_RemovesTrees(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	newFamily(t, s, "Smith")

	_, err := s.SaveTree(ctx, "Smith", "main", []byte(sampleTree))
	require.NoError(t, err)

	require.NoError(t, s.DeleteFamily(ctx, "smith"))
	require.ErrorIs(t, s.DeleteFamily(ctx, "smith"), ErrNotFound)

	// Recreating the family must not resurrect old trees.
	newFamily(t, s, "Smith")
	trees, err := s.ListTrees(ctx, "Smith")
	require.NoError(t, err)
	assert.Empty(t, trees)
}

func TestSaveAndGetTree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	newFamily(t, s, "Smith")

	name, err := s.SaveTree(ctx, "Smith", "main tree", []byte(sampleTree))
	require.NoError(t, err)
	assert.Equal(t, "main_tree.json", name)

	tree, err := s.GetTree(ctx, "smith", "main tree")
	require.NoError(t, err)
	assert.Equal(t, "Smith", tree.Family)
	assert.Equal(t, "main_tree.json", tree.FileName)
	assert.JSONEq(t, sampleTree, string(tree.Content))
	assert.False(t, tree.CreatedAt.IsZero())

	// Saving again replaces the content.
	saved, err := s.SaveTree(ctx, "Smith", "MAIN_TREE.json", []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, "main_tree.json", saved, "the stored spelling is reported")
	tree, err = s.GetTree(ctx, "Smith", "main_tree.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(tree.Content))

	trees, err := s.ListTrees(ctx, "Smith")
	require.NoError(t, err)
	assert.Equal(t, []string{"main_tree.json"}, trees)
}

func TestSaveTree_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveTree(ctx, "Nobody", "x", []byte(`[]`))
	require.ErrorIs(t, err, ErrNotFound)

	newFamily(t, s, "Smith")
	_, err = s.SaveTree(ctx, "Smith", "x", []byte(`{not json`))
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = s.GetTree(ctx, "Smith", "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.ListTrees(ctx, "Nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRenameTree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	newFamily(t, s, "Smith")
	for _, n := range []string{"a", "b"} {
		_, err := s.SaveTree(ctx, "Smith", n, []byte(sampleTree))
		require.NoError(t, err)
	}

	name, err := s.RenameTree(ctx, "Smith", "a.json", "first draft")
	require.NoError(t, err)
	assert.Equal(t, "first_draft.json", name)

	_, err = s.RenameTree(ctx, "Smith", "first_draft.json", "b")
	require.ErrorIs(t, err, ErrExists)

	_, err = s.RenameTree(ctx, "Smith", "missing", "c")
	require.ErrorIs(t, err, ErrNotFound)

	name, err = s.RenameTree(ctx, "Smith", "b.json", "B.json")
	require.NoError(t, err, "case-only rename is allowed")
	assert.Equal(t, "B.json", name)

	trees, err := s.ListTrees(ctx, "Smith")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"B.json", "first_draft.json"}, trees)
}

func TestDeleteTree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	newFamily(t, s, "Smith")
	_, err := s.SaveTree(ctx, "Smith", "a", []byte(sampleTree))
	require.NoError(t, err)

	require.NoError(t, s.DeleteTree(ctx, "Smith", "a.json"))
	require.ErrorIs(t, s.DeleteTree(ctx, "Smith", "a.json"), ErrNotFound)
	require.ErrorIs(t, s.DeleteTree(ctx, "Nobody", "a.json"), ErrNotFound)
}
