package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type mockPatternRepo struct {
	patterns []models.Pattern
}

func (m *mockPatternRepo) Create(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	if pattern.ID == "" {
		pattern.ID = "pat-1"
	}
	m.patterns = append(m.patterns, pattern)
	return pattern, nil
}

func (m *mockPatternRepo) Get(ctx context.Context, id string) (models.Pattern, error) {
	for _, pattern := range m.patterns {
		if pattern.ID == id {
			return pattern, nil
		}
	}
	return models.Pattern{}, domain.NotFoundError{Resource: "pattern"}
}

func (m *mockPatternRepo) List(ctx context.Context, category string) ([]models.Pattern, error) {
	return m.patterns, nil
}

func (m *mockPatternRepo) ListEnabled(ctx context.Context) ([]models.Pattern, error) {
	out := []models.Pattern{}
	for _, pattern := range m.patterns {
		if pattern.Enabled {
			out = append(out, pattern)
		}
	}
	return out, nil
}

func (m *mockPatternRepo) Update(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	return pattern, nil
}

func (m *mockPatternRepo) Delete(ctx context.Context, id string) error { return nil }

func TestPatternCreateRejectsBadRegexp(t *testing.T) {
	uc := NewPatternUsecase(&mockPatternRepo{}, &mockEvents{})

	_, err := uc.Create(context.Background(), models.Pattern{Name: "broken", Expression: "[a-"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPatternScan(t *testing.T) {
	repo := &mockPatternRepo{patterns: []models.Pattern{
		{ID: "pat-email", Name: "Email", Category: "contact", Expression: `[a-z0-9.]+@[a-z0-9.]+\.[a-z]{2,}`, Enabled: true},
		{ID: "pat-ssn", Name: "SSN", Category: "identity", Expression: `\d{3}-\d{2}-\d{4}`, Enabled: true},
		{ID: "pat-off", Name: "Disabled", Expression: `off`, Enabled: false},
	}}
	uc := NewPatternUsecase(repo, &mockEvents{})

	findings, err := uc.Scan(context.Background(), []string{
		"contact alice@example.com or bob@example.org",
		"nothing sensitive here, off the record",
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].PatternID != "pat-email" {
		t.Fatalf("expected email finding, got %s", findings[0].PatternID)
	}
	if findings[0].MatchCount != 2 {
		t.Fatalf("expected 2 matches, got %d", findings[0].MatchCount)
	}
	if len(findings[0].Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(findings[0].Samples))
	}
}

func TestPatternScanCapsSamples(t *testing.T) {
	repo := &mockPatternRepo{patterns: []models.Pattern{
		{ID: "pat-digit", Name: "Digit", Expression: `\d`, Enabled: true},
	}}
	uc := NewPatternUsecase(repo, &mockEvents{})

	findings, err := uc.Scan(context.Background(), []string{"0123456789"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if findings[0].MatchCount != 10 {
		t.Fatalf("expected 10 matches, got %d", findings[0].MatchCount)
	}
	if len(findings[0].Samples) != maxFindingSamples {
		t.Fatalf("expected %d samples, got %d", maxFindingSamples, len(findings[0].Samples))
	}
}
