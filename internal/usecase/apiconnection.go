package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// ApiConnectionRepository defines persistence for API connections.
type ApiConnectionRepository interface {
	Create(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error)
	Get(ctx context.Context, id string) (models.ApiConnection, error)
	List(ctx context.Context) ([]models.ApiConnection, error)
	Update(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error)
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type ApiConnectionUsecase struct {
	repo   ApiConnectionRepository
	client *http.Client
	events EventPublisher
}

func NewApiConnectionUsecase(repo ApiConnectionRepository, events EventPublisher) *ApiConnectionUsecase {
	return &ApiConnectionUsecase{
		repo:   repo,
		client: &http.Client{Timeout: 10 * time.Second},
		events: events,
	}
}

func (uc *ApiConnectionUsecase) validate(conn models.ApiConnection) error {
	if conn.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	parsed, err := url.Parse(conn.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.ValidationError{Field: "baseURL", Reason: "must be an http(s) URL"}
	}
	return nil
}

func (uc *ApiConnectionUsecase) Create(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	if err := uc.validate(conn); err != nil {
		return models.ApiConnection{}, err
	}

	created, err := uc.repo.Create(ctx, conn)
	if err != nil {
		return models.ApiConnection{}, err
	}

	uc.events.Notify(ctx, "connection", "created", created.ID)
	return created, nil
}

func (uc *ApiConnectionUsecase) Get(ctx context.Context, id string) (models.ApiConnection, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *ApiConnectionUsecase) List(ctx context.Context) ([]models.ApiConnection, error) {
	return uc.repo.List(ctx)
}

func (uc *ApiConnectionUsecase) Update(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	if err := uc.validate(conn); err != nil {
		return models.ApiConnection{}, err
	}

	updated, err := uc.repo.Update(ctx, conn)
	if err != nil {
		return models.ApiConnection{}, err
	}

	uc.events.Notify(ctx, "connection", "updated", updated.ID)
	return updated, nil
}

func (uc *ApiConnectionUsecase) Delete(ctx context.Context, id string) error {
	err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "connection", "deleted", id)
	return nil
}

// Test issues a HEAD request against the base URL with the stored headers
// and records reachability.
func (uc *ApiConnectionUsecase) Test(ctx context.Context, id string) (models.ApiConnection, error) {
	conn, err := uc.repo.Get(ctx, id)
	if err != nil {
		return models.ApiConnection{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, conn.BaseURL, nil)
	if err != nil {
		return models.ApiConnection{}, err
	}

	if len(conn.Headers) > 0 {
		var headers map[string]string
		if err := json.Unmarshal(conn.Headers, &headers); err == nil {
			for key, value := range headers {
				req.Header.Set(key, value)
			}
		}
	}

	status := domain.SourceStatusConnected
	resp, err := uc.client.Do(req)
	if err != nil || resp.StatusCode >= 500 {
		status = domain.SourceStatusError
	}
	if resp != nil {
		resp.Body.Close()
	}

	if err := uc.repo.SetStatus(ctx, id, status); err != nil {
		return models.ApiConnection{}, err
	}

	uc.events.Notify(ctx, "connection", "status", id)
	return uc.repo.Get(ctx, id)
}
