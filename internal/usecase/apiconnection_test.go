package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/datatypes"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type mockConnectionRepo struct {
	conn models.ApiConnection
}

func (m *mockConnectionRepo) Create(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	if conn.ID == "" {
		conn.ID = "conn-1"
	}
	m.conn = conn
	return conn, nil
}

func (m *mockConnectionRepo) Get(ctx context.Context, id string) (models.ApiConnection, error) {
	if m.conn.ID != id {
		return models.ApiConnection{}, domain.NotFoundError{Resource: "api connection"}
	}
	return m.conn, nil
}

func (m *mockConnectionRepo) List(ctx context.Context) ([]models.ApiConnection, error) {
	return []models.ApiConnection{m.conn}, nil
}

func (m *mockConnectionRepo) Update(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	m.conn = conn
	return conn, nil
}

func (m *mockConnectionRepo) SetStatus(ctx context.Context, id, status string) error {
	m.conn.Status = status
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, id string) error { return nil }

func TestApiConnectionCreateRejectsBadURL(t *testing.T) {
	uc := NewApiConnectionUsecase(&mockConnectionRepo{}, &mockEvents{})

	_, err := uc.Create(context.Background(), models.ApiConnection{Name: "partner", BaseURL: "ftp://example.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApiConnectionTestSendsHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Api-Key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &mockConnectionRepo{conn: models.ApiConnection{
		ID:      "conn-1",
		Name:    "partner",
		BaseURL: server.URL,
		Headers: datatypes.JSON(`{"X-Api-Key":"secret"}`),
	}}
	uc := NewApiConnectionUsecase(repo, &mockEvents{})

	conn, err := uc.Test(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("test failed: %v", err)
	}

	if conn.Status != domain.SourceStatusConnected {
		t.Fatalf("expected connected, got %s", conn.Status)
	}
	if gotAuth != "secret" {
		t.Fatalf("expected stored header to be sent, got %q", gotAuth)
	}
}

func TestApiConnectionTestRecordsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := &mockConnectionRepo{conn: models.ApiConnection{
		ID:      "conn-1",
		Name:    "partner",
		BaseURL: server.URL,
	}}
	uc := NewApiConnectionUsecase(repo, &mockEvents{})

	conn, err := uc.Test(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("test failed: %v", err)
	}

	if conn.Status != domain.SourceStatusError {
		t.Fatalf("expected error status, got %s", conn.Status)
	}
}
