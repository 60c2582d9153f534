package schema

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readAll(t *testing.T, path string) ([]Document, error) {
	t.Helper()
	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var docs []Document
	for {
		doc, err := r.Read()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}

func TestReadYAMLStream(t *testing.T) {
	path := writeConfig(t, "schema.yaml", `
database: shop
index: products
nodes:
  table: products
---
database: shop
index: orders
nodes:
  table: orders
`)

	docs, err := readAll(t, path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "products", docs[0].IndexName())
	assert.Equal(t, "orders", docs[1].IndexName())
}

func TestReadTopLevelSequence(t *testing.T) {
	path := writeConfig(t, "schema.yaml", `
- database: shop
  nodes:
    table: products
- database: shop
  index: orders
  nodes:
    table: orders
`)

	docs, err := readAll(t, path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "shop", docs[0].IndexName())
	assert.Equal(t, "orders", docs[1].IndexName())
}

func TestReadJSONArray(t *testing.T) {
	path := writeConfig(t, "schema.json",
		`[{"database": "shop", "index": "products", "nodes": {"table": "products"}}]`)

	docs, err := readAll(t, path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "products", docs[0].Index)
}

func TestReadEmptySource(t *testing.T) {
	path := writeConfig(t, "schema.yaml", "")

	docs, err := readAll(t, path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadPreservesOrder(t *testing.T) {
	path := writeConfig(t, "schema.yaml", `
- {database: one, nodes: {table: t}}
- {database: two, nodes: {table: t}}
- {database: three, nodes: {table: t}}
`)

	docs, err := readAll(t, path)
	require.NoError(t, err)
	var names []string
	for _, d := range docs {
		names = append(names, d.Database)
	}
	assert.Equal(t, []string{"one", "two", "three"}, names)
}

func TestReadMalformedMidStream(t *testing.T) {
	path := writeConfig(t, "schema.yaml", `
database: shop
nodes:
  table: products
---
database: [not
`)

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, err = r.Read()
	require.NoError(t, err)

	_, err = r.Read()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSchemaParse))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestResolveExplicitPath(t *testing.T) {
	path := writeConfig(t, "custom.yaml", "database: shop")

	resolved, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = Resolve(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigNotFound))
}

func TestResolveFromEnv(t *testing.T) {
	path := writeConfig(t, "env.yaml", "database: shop")
	t.Setenv("PGMIRROR_CONFIG", path)

	resolved, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolveDefaultName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yml"), []byte("database: shop"), 0644))

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })

	resolved, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "schema.yml", resolved)
}
