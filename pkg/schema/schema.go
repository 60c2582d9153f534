// Package schema models the declarative sync configuration consumed by
// pgmirror. A configuration source holds one or more documents, each
// describing a single database/index pair and the tree of tables that feed
// it. Documents are independent of each other.
package schema

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

// Relationship variants and types accepted in node definitions.
const (
	VariantObject = "object"
	VariantScalar = "scalar"

	TypeOneToOne  = "one_to_one"
	TypeOneToMany = "one_to_many"
)

// DefaultSchema is assumed when a node does not name a Postgres schema.
const DefaultSchema = "public"

// slotNameMax is the Postgres limit on replication slot names.
const slotNameMax = 63

var slotNameStrip = regexp.MustCompile(`[^0-9a-zA-Z_]+`)

// ForeignKey names the columns tying a child node to its parent.
type ForeignKey struct {
	Parent []string `yaml:"parent"`
	Child  []string `yaml:"child"`
}

// Relationship describes how a child node is folded into its parent
// document.
type Relationship struct {
	Variant    string     `yaml:"variant"`
	Type       string     `yaml:"type"`
	ForeignKey ForeignKey `yaml:"foreign_key"`
	Throughs   []string   `yaml:"through_tables"`
}

// Node is one table in a document's tree.
type Node struct {
	Table        string                 `yaml:"table"`
	Schema       string                 `yaml:"schema"`
	Label        string                 `yaml:"label"`
	Columns      []string               `yaml:"columns"`
	PrimaryKey   []string               `yaml:"primary_key"`
	Relationship Relationship           `yaml:"relationship"`
	Children     []Node                 `yaml:"children"`
	BaseTables   []string               `yaml:"base_tables"`
	Transform    map[string]interface{} `yaml:"transform"`
}

// SchemaName returns the node's Postgres schema, defaulting to public.
func (n *Node) SchemaName() string {
	if n.Schema == "" {
		return DefaultSchema
	}
	return n.Schema
}

// Document is one self-contained sync target definition.
type Document struct {
	Database string                 `yaml:"database"`
	Index    string                 `yaml:"index"`
	Pipeline string                 `yaml:"pipeline"`
	Routing  string                 `yaml:"routing"`
	Plugins  []string               `yaml:"plugins"`
	Nodes    Node                   `yaml:"nodes"`
	Setting  map[string]interface{} `yaml:"setting"`
	Mapping  map[string]interface{} `yaml:"mapping"`
}

// IndexName returns the target index, falling back to the database name.
func (d *Document) IndexName() string {
	if d.Index != "" {
		return d.Index
	}
	return d.Database
}

// DatabaseName returns the source database, falling back to the index name.
func (d *Document) DatabaseName() string {
	if d.Database != "" {
		return d.Database
	}
	return d.Index
}

// Name derives the document's replication slot name: database and index
// joined, restricted to [0-9a-zA-Z_] and truncated to the Postgres 63-char
// slot name limit.
func (d *Document) Name() string {
	name := strings.ToLower(d.DatabaseName()) + "_" + d.IndexName()
	name = slotNameStrip.ReplaceAllString(name, "")
	if len(name) > slotNameMax {
		name = name[:slotNameMax]
	}
	return name
}

// Validate checks the document for structural problems. Teardown paths
// never call this: a half-removed schema must still tear down cleanly.
func (d *Document) Validate() error {
	if d.DatabaseName() == "" {
		return errors.New(errors.ErrSchemaInvalid, "document is missing both database and index")
	}
	if d.Nodes.Table == "" {
		return errors.Newf(errors.ErrSchemaInvalid, "document %q has no root table", d.Name())
	}
	return d.validateNode(&d.Nodes, true)
}

func (d *Document) validateNode(n *Node, root bool) error {
	if n.Table == "" {
		return errors.Newf(errors.ErrSchemaInvalid, "document %q has a node without a table", d.Name())
	}
	if !root {
		rel := n.Relationship
		if rel.Variant != "" && rel.Variant != VariantObject && rel.Variant != VariantScalar {
			return errors.Newf(errors.ErrSchemaInvalid,
				"node %q has unknown relationship variant %q", n.Table, rel.Variant).
				WithDetail("table", n.Table)
		}
		if rel.Type != "" && rel.Type != TypeOneToOne && rel.Type != TypeOneToMany {
			return errors.Newf(errors.ErrSchemaInvalid,
				"node %q has unknown relationship type %q", n.Table, rel.Type).
				WithDetail("table", n.Table)
		}
	}
	for i := range n.Children {
		if err := d.validateNode(&n.Children[i], false); err != nil {
			return err
		}
	}
	return nil
}

// Schemas returns the distinct Postgres schemas referenced by the document,
// in first-seen traversal order.
func (d *Document) Schemas() []string {
	seen := make(map[string]bool)
	var schemas []string
	for _, n := range d.Traverse() {
		name := n.SchemaName()
		if !seen[name] {
			seen[name] = true
			schemas = append(schemas, name)
		}
	}
	return schemas
}

// Tables returns every table in the given schema that sync infrastructure
// must cover: node tables, through tables and base tables.
func (d *Document) Tables(schemaName string) []string {
	seen := make(map[string]bool)
	var tables []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	for _, n := range d.Traverse() {
		if n.SchemaName() != schemaName {
			continue
		}
		add(n.Table)
		for _, through := range n.Relationship.Throughs {
			add(through)
		}
		for _, base := range n.BaseTables {
			add(base)
		}
	}
	return tables
}

// Traverse walks the node tree breadth-first starting at the root.
func (d *Document) Traverse() []*Node {
	queue := []*Node{&d.Nodes}
	var nodes []*Node
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		nodes = append(nodes, n)
		for i := range n.Children {
			queue = append(queue, &n.Children[i])
		}
	}
	return nodes
}
