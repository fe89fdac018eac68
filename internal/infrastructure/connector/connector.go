package connector

import (
	"context"
	"fmt"
	"sync"
)

// Config holds the connection details parsed from a data source's
// config blob.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode,omitempty"`
}

// Column describes one column of an external table.
type Column struct {
	Name       string `json:"name"`
	DataType   string `json:"dataType"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// ForeignKey is one outgoing FK edge of a table.
type ForeignKey struct {
	Table            string `json:"table"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
}

// Connector walks an external relational database: health, table and
// column listings, foreign keys, and row samples.
type Connector interface {
	Ping(ctx context.Context) error
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]Column, error)
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
	SampleRows(ctx context.Context, table string, columns []string, limit int) ([]map[string]any, error)
	Close()
}

// Factory opens a connector for a parsed config.
type Factory func(ctx context.Context, config Config) (Connector, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(sourceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[sourceType] = factory
}

// Open creates a connector for the given source type.
func (r *Registry) Open(ctx context.Context, sourceType string, config Config) (Connector, error) {
	r.mu.RLock()
	factory, ok := r.factories[sourceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no connector registered for source type %q", sourceType)
	}
	return factory(ctx, config)
}

// Supported reports whether a connector exists for the source type.
func (r *Registry) Supported(sourceType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[sourceType]
	return ok
}
