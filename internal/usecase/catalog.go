package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
	"github.com/quarrydata/quarry/internal/service"
)

// CatalogRepository defines persistence for catalog fields and their
// canonical-schema annotations.
type CatalogRepository interface {
	CreateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error)
	GetField(ctx context.Context, id string) (models.CatalogField, error)
	ListFields(ctx context.Context, dataSourceID string, piiOnly bool) ([]models.CatalogField, error)
	ListUnannotatedFields(ctx context.Context, dataSourceID string) ([]models.CatalogField, error)
	UpdateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error)
	DeleteField(ctx context.Context, id string) error
	CreateAnnotation(ctx context.Context, annotation models.FieldAnnotation) (models.FieldAnnotation, error)
	ListAnnotations(ctx context.Context, fieldID string) ([]models.FieldAnnotation, error)
	DeleteAnnotation(ctx context.Context, id string) error
}

type CatalogUsecase struct {
	repo    CatalogRepository
	assist  Assist
	scanner FindingScanner
	events  EventPublisher
}

func NewCatalogUsecase(repo CatalogRepository, assist Assist, scanner FindingScanner, events EventPublisher) *CatalogUsecase {
	return &CatalogUsecase{
		repo:    repo,
		assist:  assist,
		scanner: scanner,
		events:  events,
	}
}

// canonicalSchema is the built-in vocabulary suggestions are matched
// against, alongside canonical names already in use.
var canonicalSchema = []string{
	"customer_id", "customer_name", "first_name", "last_name", "email",
	"phone", "address", "city", "country", "postal_code", "date_of_birth",
	"ssn", "iban", "account_number", "order_id", "product_id", "product_name",
	"price", "quantity", "amount", "currency", "status", "created_at",
	"updated_at",
}

func (uc *CatalogUsecase) CreateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error) {
	if field.Name == "" {
		return models.CatalogField{}, domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if field.DataSourceID == "" {
		return models.CatalogField{}, domain.ValidationError{Field: "dataSourceID", Reason: "must not be empty"}
	}

	created, err := uc.repo.CreateField(ctx, field)
	if err != nil {
		return models.CatalogField{}, err
	}

	uc.events.Notify(ctx, "field", "created", created.ID)
	return created, nil
}

func (uc *CatalogUsecase) GetField(ctx context.Context, id string) (models.CatalogField, error) {
	return uc.repo.GetField(ctx, id)
}

func (uc *CatalogUsecase) ListFields(ctx context.Context, dataSourceID string, piiOnly bool) ([]models.CatalogField, error) {
	return uc.repo.ListFields(ctx, dataSourceID, piiOnly)
}

func (uc *CatalogUsecase) UpdateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error) {
	if field.Name == "" {
		return models.CatalogField{}, domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	updated, err := uc.repo.UpdateField(ctx, field)
	if err != nil {
		return models.CatalogField{}, err
	}

	uc.events.Notify(ctx, "field", "updated", updated.ID)
	return updated, nil
}

func (uc *CatalogUsecase) DeleteField(ctx context.Context, id string) error {
	err := uc.repo.DeleteField(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "field", "deleted", id)
	return nil
}

func (uc *CatalogUsecase) Annotate(ctx context.Context, annotation models.FieldAnnotation) (models.FieldAnnotation, error) {
	if annotation.CanonicalName == "" {
		return models.FieldAnnotation{}, domain.ValidationError{Field: "canonicalName", Reason: "must not be empty"}
	}
	if annotation.Source == "" {
		annotation.Source = domain.AnnotationSourceUser
	}

	created, err := uc.repo.CreateAnnotation(ctx, annotation)
	if err != nil {
		return models.FieldAnnotation{}, err
	}

	uc.events.Notify(ctx, "field", "annotated", annotation.FieldID)
	return created, nil
}

func (uc *CatalogUsecase) ListAnnotations(ctx context.Context, fieldID string) ([]models.FieldAnnotation, error) {
	return uc.repo.ListAnnotations(ctx, fieldID)
}

func (uc *CatalogUsecase) DeleteAnnotation(ctx context.Context, id string) error {
	return uc.repo.DeleteAnnotation(ctx, id)
}

// Classify inspects sample values for a field and records the detected
// sensitive kind as its classification, setting the PII flag. LLM entity
// detection runs when assist is configured; otherwise the enabled
// sensitive-data patterns are scanned instead.
func (uc *CatalogUsecase) Classify(ctx context.Context, fieldID string, samples []string) (models.CatalogField, error) {
	ctx, span := tracer.Start(ctx, "Catalog.Usecase.Classify")
	defer span.End()

	if len(samples) == 0 {
		return models.CatalogField{}, domain.ValidationError{Field: "samples", Reason: "must not be empty"}
	}

	field, err := uc.repo.GetField(ctx, fieldID)
	if err != nil {
		return models.CatalogField{}, err
	}

	classification, sensitive, err := uc.detectKind(ctx, samples)
	if err != nil {
		return models.CatalogField{}, err
	}
	if classification == "" {
		return field, nil
	}

	field.Classification = classification
	field.PII = sensitive

	updated, err := uc.repo.UpdateField(ctx, field)
	if err != nil {
		return models.CatalogField{}, err
	}

	uc.events.Notify(ctx, "field", "classified", updated.ID)
	return updated, nil
}

// detectionFloor is the minimum model confidence accepted for a detected
// entity kind; weaker answers fall back to the pattern scan.
const detectionFloor = 0.6

func (uc *CatalogUsecase) detectKind(ctx context.Context, samples []string) (string, bool, error) {
	if uc.assist != nil && uc.assist.Enabled() {
		entities, err := uc.assist.DetectEntities(ctx, samples)
		if err != nil {
			slog.WarnContext(
				ctx, "Entity detection failed",
				slog.String("error", err.Error()),
				slog.String("module", "catalog"),
			)
		} else {
			best := service.DetectedEntity{}
			for _, entity := range entities {
				if entity.Confidence > best.Confidence {
					best = entity
				}
			}
			if best.Kind == "none" {
				return "", false, nil
			}
			if best.Kind != "" && best.Confidence >= detectionFloor {
				return best.Kind, true, nil
			}
		}
	}

	if uc.scanner == nil {
		return "", false, nil
	}

	findings, err := uc.scanner.Scan(ctx, samples)
	if err != nil {
		return "", false, err
	}
	if len(findings) == 0 {
		return "", false, nil
	}

	best := findings[0]
	for _, finding := range findings[1:] {
		if finding.MatchCount > best.MatchCount {
			best = finding
		}
	}
	return best.Category, true, nil
}

// Suggest proposes canonical mappings for every un-annotated field of a
// data source. Name-similarity heuristics run first; when LLM assist is
// configured it contributes candidates for fields the heuristic could not
// place.
func (uc *CatalogUsecase) Suggest(ctx context.Context, dataSourceID string) ([]quarry.MappingSuggestion, error) {
	ctx, span := tracer.Start(ctx, "Catalog.Usecase.Suggest")
	defer span.End()

	fields, err := uc.repo.ListUnannotatedFields(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}

	suggestions := []quarry.MappingSuggestion{}
	for _, field := range fields {
		candidate, confidence := bestCanonicalMatch(field.Name)

		if confidence >= 0.5 {
			suggestions = append(suggestions, quarry.MappingSuggestion{
				FieldID:       field.ID,
				FieldName:     field.Name,
				CanonicalName: candidate,
				Confidence:    confidence,
				Source:        "heuristic",
			})
			continue
		}

		if uc.assist == nil || !uc.assist.Enabled() {
			continue
		}

		keywords, err := uc.assist.GenerateKeywords(ctx, field.Name, field.DataType, field.Description)
		if err != nil {
			slog.WarnContext(
				ctx, "Keyword generation failed",
				slog.String("error", err.Error()),
				slog.String("field", field.Name),
				slog.String("module", "catalog"),
			)
			continue
		}
		if len(keywords) == 0 {
			continue
		}

		suggestions = append(suggestions, quarry.MappingSuggestion{
			FieldID:       field.ID,
			FieldName:     field.Name,
			CanonicalName: keywords[0],
			Confidence:    0.5,
			Source:        "ai",
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return suggestions, nil
}

// bestCanonicalMatch scores a field name against the canonical vocabulary:
// equal normalized names win outright, then substring containment, then
// token overlap.
func bestCanonicalMatch(fieldName string) (string, float64) {
	normalized := quarry.Normalize(fieldName)
	fieldTokens := quarry.Tokenize(fieldName)

	best := ""
	bestScore := 0.0

	for _, canonical := range canonicalSchema {
		canonNorm := quarry.Normalize(canonical)

		var score float64
		switch {
		case normalized == canonNorm:
			score = 1.0
		case len(normalized) >= 3 && (quarry.ContainsFold(canonNorm, normalized) || quarry.ContainsFold(normalized, canonNorm)):
			score = 0.8
		default:
			score = tokenOverlap(fieldTokens, quarry.Tokenize(canonical))
		}

		if score > bestScore {
			best = canonical
			bestScore = score
		}
	}

	return best, bestScore
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, token := range a {
		set[token] = true
	}

	shared := 0
	for _, token := range b {
		if set[token] {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	return float64(shared) / float64(union) * 0.7
}
