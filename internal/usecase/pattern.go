package usecase

import (
	"context"
	"regexp"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// PatternRepository defines persistence for sensitive-data patterns.
type PatternRepository interface {
	Create(ctx context.Context, pattern models.Pattern) (models.Pattern, error)
	Get(ctx context.Context, id string) (models.Pattern, error)
	List(ctx context.Context, category string) ([]models.Pattern, error)
	ListEnabled(ctx context.Context) ([]models.Pattern, error)
	Update(ctx context.Context, pattern models.Pattern) (models.Pattern, error)
	Delete(ctx context.Context, id string) error
}

type PatternUsecase struct {
	repo   PatternRepository
	events EventPublisher
}

func NewPatternUsecase(repo PatternRepository, events EventPublisher) *PatternUsecase {
	return &PatternUsecase{
		repo:   repo,
		events: events,
	}
}

func (uc *PatternUsecase) validate(pattern models.Pattern) error {
	if pattern.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if pattern.Expression == "" {
		return domain.ValidationError{Field: "expression", Reason: "must not be empty"}
	}
	if _, err := regexp.Compile(pattern.Expression); err != nil {
		return domain.ValidationError{Field: "expression", Reason: err.Error()}
	}
	return nil
}

func (uc *PatternUsecase) Create(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	if err := uc.validate(pattern); err != nil {
		return models.Pattern{}, err
	}

	created, err := uc.repo.Create(ctx, pattern)
	if err != nil {
		return models.Pattern{}, err
	}

	uc.events.Notify(ctx, "pattern", "created", created.ID)
	return created, nil
}

func (uc *PatternUsecase) Get(ctx context.Context, id string) (models.Pattern, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *PatternUsecase) List(ctx context.Context, category string) ([]models.Pattern, error) {
	return uc.repo.List(ctx, category)
}

func (uc *PatternUsecase) Update(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	if err := uc.validate(pattern); err != nil {
		return models.Pattern{}, err
	}

	updated, err := uc.repo.Update(ctx, pattern)
	if err != nil {
		return models.Pattern{}, err
	}

	uc.events.Notify(ctx, "pattern", "updated", updated.ID)
	return updated, nil
}

func (uc *PatternUsecase) Delete(ctx context.Context, id string) error {
	err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "pattern", "deleted", id)
	return nil
}

const maxFindingSamples = 5

// Scan runs every enabled pattern over the submitted values and returns
// one finding per pattern that matched anything.
func (uc *PatternUsecase) Scan(ctx context.Context, values []string) ([]quarry.ScanFinding, error) {
	ctx, span := tracer.Start(ctx, "Pattern.Usecase.Scan")
	defer span.End()

	patterns, err := uc.repo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	findings := []quarry.ScanFinding{}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern.Expression)
		if err != nil {
			// Stored expressions are validated on write; skip rather
			// than fail the whole scan.
			continue
		}

		finding := quarry.ScanFinding{
			PatternID:   pattern.ID,
			PatternName: pattern.Name,
			Category:    pattern.Category,
			Sensitivity: pattern.Sensitivity,
		}

		for _, value := range values {
			matches := re.FindAllString(value, -1)
			finding.MatchCount += len(matches)
			for _, match := range matches {
				if len(finding.Samples) < maxFindingSamples {
					finding.Samples = append(finding.Samples, match)
				}
			}
		}

		if finding.MatchCount > 0 {
			findings = append(findings, finding)
		}
	}

	return findings, nil
}
