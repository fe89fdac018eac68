package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type mockSchemaCache struct {
	entries map[string][]byte
}

func (m *mockSchemaCache) GetSnapshot(key string) ([]byte, bool) {
	raw, ok := m.entries[key]
	return raw, ok
}

func (m *mockSchemaCache) SetSnapshot(key string, value []byte) {
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = value
}

func discoverFixture() (*mockSourceRepo, *mockOpener) {
	sources := newMockSourceRepo()
	sources.sources["src-1"] = models.DataSource{ID: "src-1", Name: "shop", Type: domain.SourceTypePostgres}

	conn := &mockConnector{
		tables: []string{"orders", "customers", "products", "addresses"},
		columns: map[string][]connector.Column{
			"orders":    {{Name: "id", PrimaryKey: true}, {Name: "customer_id"}, {Name: "product_id"}},
			"customers": {{Name: "id", PrimaryKey: true}, {Name: "address_id"}},
			"products":  {{Name: "id", PrimaryKey: true}},
			"addresses": {{Name: "id", PrimaryKey: true}},
		},
		fks: map[string][]connector.ForeignKey{
			"orders": {
				{Table: "orders", Column: "customer_id", ReferencedTable: "customers", ReferencedColumn: "id"},
				{Table: "orders", Column: "product_id", ReferencedTable: "products", ReferencedColumn: "id"},
			},
			"customers": {
				{Table: "customers", Column: "address_id", ReferencedTable: "addresses", ReferencedColumn: "id"},
			},
		},
	}

	return sources, &mockOpener{conn: conn}
}

func TestDiscoverWalksForeignKeys(t *testing.T) {
	sources, opener := discoverFixture()
	uc := NewRelationalUsecase(sources, opener, nil)

	graph, err := uc.Discover(context.Background(), "src-1", DiscoverOptions{RootTable: "orders"})
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	if graph.Root != "orders" {
		t.Fatalf("expected root orders, got %s", graph.Root)
	}
	if len(graph.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(graph.Nodes))
	}
	if len(graph.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(graph.Edges))
	}

	// BFS order with sorted edges: orders, then customers before products.
	if graph.Nodes[0].Table != "orders" || graph.Nodes[0].Depth != 0 {
		t.Fatalf("unexpected first node: %+v", graph.Nodes[0])
	}
	if graph.Nodes[1].Table != "customers" || graph.Nodes[1].Depth != 1 {
		t.Fatalf("unexpected second node: %+v", graph.Nodes[1])
	}
	if graph.Nodes[3].Table != "addresses" || graph.Nodes[3].Depth != 2 {
		t.Fatalf("unexpected last node: %+v", graph.Nodes[3])
	}
}

func TestDiscoverHonorsMaxDepth(t *testing.T) {
	sources, opener := discoverFixture()
	uc := NewRelationalUsecase(sources, opener, nil)

	graph, err := uc.Discover(context.Background(), "src-1", DiscoverOptions{RootTable: "orders", MaxDepth: 1})
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	for _, node := range graph.Nodes {
		if node.Table == "addresses" {
			t.Fatalf("addresses is beyond depth 1, should not be visited")
		}
	}
}

func TestDiscoverExcludesTables(t *testing.T) {
	sources, opener := discoverFixture()
	uc := NewRelationalUsecase(sources, opener, nil)

	graph, err := uc.Discover(context.Background(), "src-1", DiscoverOptions{
		RootTable:     "orders",
		ExcludeTables: []string{"products"},
	})
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	for _, node := range graph.Nodes {
		if node.Table == "products" {
			t.Fatalf("products should be excluded")
		}
	}
	for _, edge := range graph.Edges {
		if edge.ToTable == "products" {
			t.Fatalf("edges to products should be excluded")
		}
	}
}

func TestDiscoverRejectsEmptyRoot(t *testing.T) {
	sources, opener := discoverFixture()
	uc := NewRelationalUsecase(sources, opener, nil)

	_, err := uc.Discover(context.Background(), "src-1", DiscoverOptions{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListTablesUsesCache(t *testing.T) {
	sources, opener := discoverFixture()
	cache := &mockSchemaCache{}
	uc := NewRelationalUsecase(sources, opener, cache)

	tables, err := uc.ListTables(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("list tables failed: %v", err)
	}
	if len(tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(tables))
	}
	if _, ok := cache.entries["tables:src-1"]; !ok {
		t.Fatalf("expected snapshot to be cached")
	}

	// Second listing is served from the snapshot even if the source is gone.
	delete(sources.sources, "src-1")
	tables, err = uc.ListTables(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("cached list tables failed: %v", err)
	}
	if len(tables) != 4 {
		t.Fatalf("expected 4 cached tables, got %d", len(tables))
	}
}
