package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

func TestDocumentNameFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		index    string
		database string
	}{
		{
			name:     "both set",
			doc:      Document{Database: "shop", Index: "products"},
			index:    "products",
			database: "shop",
		},
		{
			name:     "index falls back to database",
			doc:      Document{Database: "shop"},
			index:    "shop",
			database: "shop",
		},
		{
			name:     "database falls back to index",
			doc:      Document{Index: "products"},
			index:    "products",
			database: "products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.index, tt.doc.IndexName())
			assert.Equal(t, tt.database, tt.doc.DatabaseName())
		})
	}
}

func TestSlotName(t *testing.T) {
	doc := Document{Database: "My-Shop", Index: "pro.ducts"}
	assert.Equal(t, "myshop_products", doc.Name())

	long := Document{Database: strings.Repeat("a", 80), Index: "idx"}
	assert.Len(t, long.Name(), 63)
}

func TestValidate(t *testing.T) {
	valid := Document{
		Database: "shop",
		Nodes: Node{
			Table: "products",
			Children: []Node{
				{
					Table: "reviews",
					Relationship: Relationship{
						Variant: VariantObject,
						Type:    TypeOneToMany,
					},
				},
			},
		},
	}
	require.NoError(t, valid.Validate())

	noTarget := Document{Nodes: Node{Table: "products"}}
	assert.True(t, errors.IsErrorCode(noTarget.Validate(), errors.ErrSchemaInvalid))

	noRoot := Document{Database: "shop"}
	assert.True(t, errors.IsErrorCode(noRoot.Validate(), errors.ErrSchemaInvalid))

	badVariant := valid
	badVariant.Nodes.Children = []Node{{
		Table:        "reviews",
		Relationship: Relationship{Variant: "sideways"},
	}}
	assert.True(t, errors.IsErrorCode(badVariant.Validate(), errors.ErrSchemaInvalid))

	badType := valid
	badType.Nodes.Children = []Node{{
		Table:        "reviews",
		Relationship: Relationship{Type: "many_to_many"},
	}}
	assert.True(t, errors.IsErrorCode(badType.Validate(), errors.ErrSchemaInvalid))
}

func TestSchemasAndTables(t *testing.T) {
	doc := Document{
		Database: "shop",
		Nodes: Node{
			Table: "products",
			Children: []Node{
				{
					Table:  "reviews",
					Schema: "audit",
					Relationship: Relationship{
						Variant:  VariantObject,
						Type:     TypeOneToMany,
						Throughs: []string{"product_reviews"},
					},
				},
				{
					Table:      "prices",
					BaseTables: []string{"price_history"},
				},
			},
		},
	}

	assert.Equal(t, []string{"public", "audit"}, doc.Schemas())
	assert.Equal(t, []string{"products", "prices", "price_history"}, doc.Tables("public"))
	assert.Equal(t, []string{"reviews", "product_reviews"}, doc.Tables("audit"))
	assert.Empty(t, doc.Tables("nonexistent"))
}

func TestTraverseBreadthFirst(t *testing.T) {
	doc := Document{
		Nodes: Node{
			Table: "a",
			Children: []Node{
				{Table: "b", Children: []Node{{Table: "d"}}},
				{Table: "c"},
			},
		},
	}

	var order []string
	for _, n := range doc.Traverse() {
		order = append(order, n.Table)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}
