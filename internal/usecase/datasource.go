package usecase

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

var tracer = otel.Tracer("usecase")

// DataSourceRepository defines persistence for data sources.
type DataSourceRepository interface {
	Create(ctx context.Context, source models.DataSource) (models.DataSource, error)
	Get(ctx context.Context, id string) (models.DataSource, error)
	List(ctx context.Context, sourceType, status string) ([]models.DataSource, error)
	Update(ctx context.Context, source models.DataSource) (models.DataSource, error)
	SetStatus(ctx context.Context, id, status, statusError string) error
	Delete(ctx context.Context, id string) error
}

type DataSourceUsecase struct {
	repo       DataSourceRepository
	connectors ConnectorOpener
	events     EventPublisher
}

func NewDataSourceUsecase(repo DataSourceRepository, connectors ConnectorOpener, events EventPublisher) *DataSourceUsecase {
	return &DataSourceUsecase{
		repo:       repo,
		connectors: connectors,
		events:     events,
	}
}

var validSourceTypes = map[string]bool{
	domain.SourceTypePostgres: true,
	domain.SourceTypeMySQL:    true,
	domain.SourceTypeCSV:      true,
	domain.SourceTypeAPI:      true,
}

func (uc *DataSourceUsecase) validate(source models.DataSource) error {
	if source.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !validSourceTypes[source.Type] {
		return domain.ValidationError{Field: "type", Reason: "unknown source type"}
	}
	return nil
}

func (uc *DataSourceUsecase) Create(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	if err := uc.validate(source); err != nil {
		return models.DataSource{}, err
	}

	created, err := uc.repo.Create(ctx, source)
	if err != nil {
		return models.DataSource{}, err
	}

	uc.events.Notify(ctx, "datasource", "created", created.ID)
	return created, nil
}

func (uc *DataSourceUsecase) Get(ctx context.Context, id string) (models.DataSource, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *DataSourceUsecase) List(ctx context.Context, sourceType, status string) ([]models.DataSource, error) {
	return uc.repo.List(ctx, sourceType, status)
}

func (uc *DataSourceUsecase) Update(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	if err := uc.validate(source); err != nil {
		return models.DataSource{}, err
	}

	updated, err := uc.repo.Update(ctx, source)
	if err != nil {
		return models.DataSource{}, err
	}

	uc.events.Notify(ctx, "datasource", "updated", updated.ID)
	return updated, nil
}

func (uc *DataSourceUsecase) Delete(ctx context.Context, id string) error {
	err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "datasource", "deleted", id)
	return nil
}

// TestConnection pings the source through its connector and records the
// resulting status.
func (uc *DataSourceUsecase) TestConnection(ctx context.Context, id string) (models.DataSource, error) {
	ctx, span := tracer.Start(ctx, "DataSource.Usecase.TestConnection")
	defer span.End()

	source, err := uc.repo.Get(ctx, id)
	if err != nil {
		return models.DataSource{}, err
	}

	if !uc.connectors.Supported(source.Type) {
		return models.DataSource{}, domain.ValidationError{
			Field:  "type",
			Reason: "source type has no connector",
		}
	}

	var config connector.Config
	if len(source.Config) > 0 {
		if err := json.Unmarshal(source.Config, &config); err != nil {
			return models.DataSource{}, domain.ValidationError{Field: "config", Reason: err.Error()}
		}
	}

	status := domain.SourceStatusConnected
	statusError := ""

	conn, err := uc.connectors.Open(ctx, source.Type, config)
	if err != nil {
		status = domain.SourceStatusError
		statusError = err.Error()
	} else {
		if err := conn.Ping(ctx); err != nil {
			status = domain.SourceStatusError
			statusError = err.Error()
		}
		conn.Close()
	}

	if err := uc.repo.SetStatus(ctx, id, status, statusError); err != nil {
		return models.DataSource{}, err
	}

	uc.events.Notify(ctx, "datasource", "status", id)
	return uc.repo.Get(ctx, id)
}
