package usecase

import (
	"context"
	"io"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
	"github.com/quarrydata/quarry/internal/service"
)

// EventPublisher fans mutation events out to dashboard subscribers.
type EventPublisher interface {
	Notify(ctx context.Context, kind, action, id string)
}

// ConnectorOpener opens connectors for external data sources.
type ConnectorOpener interface {
	Open(ctx context.Context, sourceType string, config connector.Config) (connector.Connector, error)
	Supported(sourceType string) bool
}

// ObjectStore persists generated dataset files.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

// Assist is the optional LLM helper for keyword generation and entity
// detection.
type Assist interface {
	Enabled() bool
	GenerateKeywords(ctx context.Context, fieldName, dataType, description string) ([]string, error)
	DetectEntities(ctx context.Context, samples []string) ([]service.DetectedEntity, error)
}

// FindingScanner runs the enabled sensitive-data patterns over sample
// values. Satisfied by PatternUsecase.
type FindingScanner interface {
	Scan(ctx context.Context, values []string) ([]quarry.ScanFinding, error)
}

// SchemaCache holds short-lived schema snapshots keyed by data source.
type SchemaCache interface {
	GetSnapshot(key string) ([]byte, bool)
	SetSnapshot(key string, value []byte)
}
