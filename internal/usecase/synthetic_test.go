package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type mockStore struct {
	objects map[string][]byte
	putErr  error
}

func newMockStore() *mockStore {
	return &mockStore{objects: map[string][]byte{}}
}

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = data
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, 0, domain.NotFoundError{Resource: "object"}
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type mockSyntheticRepo struct {
	dataset models.SyntheticDataset
}

func (m *mockSyntheticRepo) Create(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	if dataset.ID == "" {
		dataset.ID = "ds-1"
	}
	if dataset.Status == "" {
		dataset.Status = domain.SyntheticStatusDraft
	}
	m.dataset = dataset
	return dataset, nil
}

func (m *mockSyntheticRepo) Get(ctx context.Context, id string) (models.SyntheticDataset, error) {
	if m.dataset.ID != id {
		return models.SyntheticDataset{}, domain.NotFoundError{Resource: "synthetic dataset"}
	}
	return m.dataset, nil
}

func (m *mockSyntheticRepo) List(ctx context.Context, status string) ([]models.SyntheticDataset, error) {
	return []models.SyntheticDataset{m.dataset}, nil
}

func (m *mockSyntheticRepo) Update(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	m.dataset = dataset
	return dataset, nil
}

func (m *mockSyntheticRepo) MarkGenerating(ctx context.Context, id string) error {
	if m.dataset.Status == domain.SyntheticStatusGenerating {
		return domain.TransitionError{From: m.dataset.Status, To: domain.SyntheticStatusGenerating}
	}
	m.dataset.Status = domain.SyntheticStatusGenerating
	return nil
}

func (m *mockSyntheticRepo) MarkReady(ctx context.Context, id, objectKey string, byteSize int64) error {
	m.dataset.Status = domain.SyntheticStatusReady
	m.dataset.ObjectKey = objectKey
	m.dataset.ByteSize = byteSize
	return nil
}

func (m *mockSyntheticRepo) MarkFailed(ctx context.Context, id, reason string) error {
	m.dataset.Status = domain.SyntheticStatusFailed
	m.dataset.StatusError = reason
	return nil
}

func (m *mockSyntheticRepo) Delete(ctx context.Context, id string) error { return nil }

func TestSyntheticCreateRejectsUnknownKind(t *testing.T) {
	uc := NewSyntheticUsecase(&mockSyntheticRepo{}, newMockStore(), &mockEvents{})

	_, err := uc.Create(context.Background(), models.SyntheticDataset{
		Name:   "users",
		Fields: datatypes.JSON(`[{"name":"id","kind":"sequence"}]`),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSyntheticCreateDefaults(t *testing.T) {
	repo := &mockSyntheticRepo{}
	uc := NewSyntheticUsecase(repo, newMockStore(), &mockEvents{})

	created, err := uc.Create(context.Background(), models.SyntheticDataset{
		Name:   "users",
		Fields: datatypes.JSON(`[{"name":"id","kind":"uuid"}]`),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Format != "csv" {
		t.Fatalf("expected csv default, got %s", created.Format)
	}
	if created.RowCount != 100 {
		t.Fatalf("expected default row count 100, got %d", created.RowCount)
	}
}

func TestSyntheticGenerateCSV(t *testing.T) {
	repo := &mockSyntheticRepo{dataset: models.SyntheticDataset{
		ID:       "ds-1",
		Name:     "users",
		RowCount: 5,
		Format:   "csv",
		Status:   domain.SyntheticStatusDraft,
		Fields: datatypes.JSON(`[
			{"name":"id","kind":"uuid"},
			{"name":"email","kind":"email"},
			{"name":"age","kind":"int","min":18,"max":80},
			{"name":"plan","kind":"choice","choices":["free","pro"]},
			{"name":"phone","kind":"pattern","format":"+1-###-####"}
		]`),
	}}
	store := newMockStore()
	uc := NewSyntheticUsecase(repo, store, &mockEvents{})

	dataset, err := uc.Generate(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if dataset.Status != domain.SyntheticStatusReady {
		t.Fatalf("expected ready, got %s", dataset.Status)
	}
	if dataset.ObjectKey == "" {
		t.Fatalf("expected object key to be set")
	}

	data, ok := store.objects[dataset.ObjectKey]
	if !ok {
		t.Fatalf("expected object to be stored")
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("stored file is not valid csv: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d", len(records))
	}
	if records[0][1] != "email" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	for _, record := range records[1:] {
		if !strings.Contains(record[1], "@") {
			t.Fatalf("expected an email, got %q", record[1])
		}
		age, err := strconv.Atoi(record[2])
		if err != nil || age < 18 || age > 80 {
			t.Fatalf("age out of range: %q", record[2])
		}
		if record[3] != "free" && record[3] != "pro" {
			t.Fatalf("unexpected choice: %q", record[3])
		}
		if !strings.HasPrefix(record[4], "+1-") {
			t.Fatalf("pattern literal not preserved: %q", record[4])
		}
	}
}

func TestSyntheticGenerateJSON(t *testing.T) {
	repo := &mockSyntheticRepo{dataset: models.SyntheticDataset{
		ID:       "ds-1",
		Name:     "users",
		RowCount: 3,
		Format:   "json",
		Status:   domain.SyntheticStatusDraft,
		Fields:   datatypes.JSON(`[{"name":"name","kind":"name"}]`),
	}}
	store := newMockStore()
	uc := NewSyntheticUsecase(repo, store, &mockEvents{})

	dataset, err := uc.Generate(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var rows []map[string]string
	if err := json.Unmarshal(store.objects[dataset.ObjectKey], &rows); err != nil {
		t.Fatalf("stored file is not valid json: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0]["name"] == "" {
		t.Fatalf("expected a generated name")
	}
}

func TestSyntheticGenerateMarksFailedOnStoreError(t *testing.T) {
	repo := &mockSyntheticRepo{dataset: models.SyntheticDataset{
		ID:       "ds-1",
		Name:     "users",
		RowCount: 1,
		Format:   "csv",
		Status:   domain.SyntheticStatusDraft,
		Fields:   datatypes.JSON(`[{"name":"id","kind":"uuid"}]`),
	}}
	store := newMockStore()
	store.putErr = errors.New("bucket unavailable")
	uc := NewSyntheticUsecase(repo, store, &mockEvents{})

	_, err := uc.Generate(context.Background(), "ds-1")
	if err == nil {
		t.Fatalf("expected generate to fail")
	}
	if repo.dataset.Status != domain.SyntheticStatusFailed {
		t.Fatalf("expected failed status, got %s", repo.dataset.Status)
	}
	if repo.dataset.StatusError == "" {
		t.Fatalf("expected failure reason to persist")
	}
}

func TestSyntheticDownloadRequiresReady(t *testing.T) {
	repo := &mockSyntheticRepo{dataset: models.SyntheticDataset{
		ID:     "ds-1",
		Name:   "users",
		Status: domain.SyntheticStatusDraft,
	}}
	uc := NewSyntheticUsecase(repo, newMockStore(), &mockEvents{})

	_, _, _, err := uc.Download(context.Background(), "ds-1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
