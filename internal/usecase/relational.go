package usecase

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
)

// DiscoverOptions tune a relationship-discovery walk.
type DiscoverOptions struct {
	RootTable     string   `json:"rootTable"`
	MaxDepth      int      `json:"maxDepth"`
	IncludeTables []string `json:"includeTables,omitempty"`
	ExcludeTables []string `json:"excludeTables,omitempty"`
}

const (
	defaultMaxDepth = 3
	maxMaxDepth     = 10
)

type RelationalUsecase struct {
	sources    DataSourceRepository
	connectors ConnectorOpener
	cache      SchemaCache
}

func NewRelationalUsecase(sources DataSourceRepository, connectors ConnectorOpener, cache SchemaCache) *RelationalUsecase {
	return &RelationalUsecase{
		sources:    sources,
		connectors: connectors,
		cache:      cache,
	}
}

// ListTables returns the table names of a source, served from the schema
// cache when a recent snapshot exists.
func (uc *RelationalUsecase) ListTables(ctx context.Context, dataSourceID string) ([]string, error) {
	cacheKey := "tables:" + dataSourceID
	if uc.cache != nil {
		if raw, ok := uc.cache.GetSnapshot(cacheKey); ok {
			var tables []string
			if err := json.Unmarshal(raw, &tables); err == nil {
				return tables, nil
			}
		}
	}

	conn, err := uc.open(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tables, err := conn.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(tables); err == nil {
			uc.cache.SetSnapshot(cacheKey, raw)
		}
	}

	return tables, nil
}

// Discover walks the foreign-key graph breadth-first from the root table
// up to the configured depth, honoring include/exclude filters and
// visiting each table once.
func (uc *RelationalUsecase) Discover(ctx context.Context, dataSourceID string, opts DiscoverOptions) (quarry.RelationshipGraph, error) {
	ctx, span := tracer.Start(ctx, "Relational.Usecase.Discover")
	defer span.End()

	if opts.RootTable == "" {
		return quarry.RelationshipGraph{}, domain.ValidationError{Field: "rootTable", Reason: "must not be empty"}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.MaxDepth > maxMaxDepth {
		opts.MaxDepth = maxMaxDepth
	}

	conn, err := uc.open(ctx, dataSourceID)
	if err != nil {
		return quarry.RelationshipGraph{}, err
	}
	defer conn.Close()

	filter := newTableFilter(opts.IncludeTables, opts.ExcludeTables)
	if !filter.allows(opts.RootTable) {
		return quarry.RelationshipGraph{}, domain.ValidationError{Field: "rootTable", Reason: "root table is filtered out"}
	}

	graph := quarry.RelationshipGraph{
		Root:     opts.RootTable,
		MaxDepth: opts.MaxDepth,
		Nodes:    []quarry.TableNode{},
		Edges:    []quarry.TableEdge{},
	}

	type queued struct {
		table string
		depth int
	}

	visited := map[string]bool{opts.RootTable: true}
	queue := []queued{{table: opts.RootTable, depth: 0}}
	seenEdges := map[string]bool{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := quarry.TableNode{Table: current.table, Depth: current.depth}
		if columns, err := conn.ListColumns(ctx, current.table); err == nil {
			for _, col := range columns {
				node.Columns = append(node.Columns, col.Name)
			}
		}
		graph.Nodes = append(graph.Nodes, node)

		if current.depth >= opts.MaxDepth {
			continue
		}

		keys, err := conn.ForeignKeys(ctx, current.table)
		if err != nil {
			return quarry.RelationshipGraph{}, err
		}

		// Deterministic walk order regardless of catalog ordering.
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].ReferencedTable != keys[j].ReferencedTable {
				return keys[i].ReferencedTable < keys[j].ReferencedTable
			}
			return keys[i].Column < keys[j].Column
		})

		for _, fk := range keys {
			if !filter.allows(fk.ReferencedTable) {
				continue
			}

			edgeKey := fk.Table + "." + fk.Column + ">" + fk.ReferencedTable + "." + fk.ReferencedColumn
			if !seenEdges[edgeKey] {
				seenEdges[edgeKey] = true
				graph.Edges = append(graph.Edges, quarry.TableEdge{
					FromTable:  fk.Table,
					FromColumn: fk.Column,
					ToTable:    fk.ReferencedTable,
					ToColumn:   fk.ReferencedColumn,
				})
			}

			if !visited[fk.ReferencedTable] {
				visited[fk.ReferencedTable] = true
				queue = append(queue, queued{table: fk.ReferencedTable, depth: current.depth + 1})
			}
		}
	}

	return graph, nil
}

func (uc *RelationalUsecase) open(ctx context.Context, dataSourceID string) (connector.Connector, error) {
	source, err := uc.sources.Get(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}

	if !uc.connectors.Supported(source.Type) {
		return nil, domain.ValidationError{Field: "type", Reason: "source type has no connector"}
	}

	var config connector.Config
	if len(source.Config) > 0 {
		if err := json.Unmarshal(source.Config, &config); err != nil {
			return nil, domain.ValidationError{Field: "config", Reason: err.Error()}
		}
	}

	return uc.connectors.Open(ctx, source.Type, config)
}

type tableFilter struct {
	include map[string]bool
	exclude map[string]bool
}

func newTableFilter(include, exclude []string) tableFilter {
	filter := tableFilter{}
	if len(include) > 0 {
		filter.include = make(map[string]bool, len(include))
		for _, table := range include {
			filter.include[table] = true
		}
	}
	if len(exclude) > 0 {
		filter.exclude = make(map[string]bool, len(exclude))
		for _, table := range exclude {
			filter.exclude[table] = true
		}
	}
	return filter
}

func (f tableFilter) allows(table string) bool {
	if f.exclude != nil && f.exclude[table] {
		return false
	}
	if f.include != nil && !f.include[table] {
		return false
	}
	return true
}
