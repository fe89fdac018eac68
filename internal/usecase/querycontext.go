package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// QueryLogRepository defines persistence for query history.
type QueryLogRepository interface {
	Create(ctx context.Context, log models.QueryLog) (models.QueryLog, error)
	Recent(ctx context.Context, limit int) ([]models.QueryLog, error)
}

// QueryContextUsecase answers free-text questions about the metadata
// catalog by keyword matching over sources, fields, and patterns.
type QueryContextUsecase struct {
	sources  DataSourceRepository
	catalog  CatalogRepository
	patterns PatternRepository
	history  QueryLogRepository
	answers  *cache.Cache
}

func NewQueryContextUsecase(
	sources DataSourceRepository,
	catalog CatalogRepository,
	patterns PatternRepository,
	history QueryLogRepository,
) *QueryContextUsecase {
	return &QueryContextUsecase{
		sources:  sources,
		catalog:  catalog,
		patterns: patterns,
		history:  history,
		answers:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

const maxMatches = 10

// Ask scores every cataloged entity against the question's tokens and
// returns the ranked matches with a one-line summary. Recent answers are
// served from cache.
func (uc *QueryContextUsecase) Ask(ctx context.Context, query string) (quarry.QueryAnswer, error) {
	ctx, span := tracer.Start(ctx, "QueryContext.Usecase.Ask")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return quarry.QueryAnswer{}, domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	cacheKey := strings.ToLower(query)
	if cached, ok := uc.answers.Get(cacheKey); ok {
		answer := cached.(quarry.QueryAnswer)
		answer.Cached = true
		return answer, nil
	}

	tokens := quarry.Tokenize(query)
	if len(tokens) == 0 {
		return quarry.QueryAnswer{}, domain.ValidationError{Field: "query", Reason: "no usable terms"}
	}

	matches := []quarry.ContextMatch{}

	sources, err := uc.sources.List(ctx, "", "")
	if err != nil {
		return quarry.QueryAnswer{}, err
	}
	for _, source := range sources {
		score, matched := scoreEntity(tokens, source.Name, source.Description, source.Type, strings.Join(source.Tags, " "))
		if score > 0 {
			matches = append(matches, quarry.ContextMatch{
				Kind: "datasource", ID: source.ID, Name: source.Name, Score: score, Matched: matched,
			})
		}
	}

	fields, err := uc.catalog.ListFields(ctx, "", false)
	if err != nil {
		return quarry.QueryAnswer{}, err
	}
	for _, field := range fields {
		canonical := make([]string, 0, len(field.Annotations))
		for _, annotation := range field.Annotations {
			canonical = append(canonical, annotation.CanonicalName)
		}
		score, matched := scoreEntity(tokens, field.Name, field.Description, field.Classification,
			strings.Join(field.Tags, " ")+" "+strings.Join(canonical, " "))
		if score > 0 {
			matches = append(matches, quarry.ContextMatch{
				Kind: "field", ID: field.ID, Name: field.Name, Score: score, Matched: matched,
			})
		}
	}

	patterns, err := uc.patterns.List(ctx, "")
	if err != nil {
		return quarry.QueryAnswer{}, err
	}
	for _, pattern := range patterns {
		score, matched := scoreEntity(tokens, pattern.Name, "", pattern.Category, "")
		if score > 0 {
			matches = append(matches, quarry.ContextMatch{
				Kind: "pattern", ID: pattern.ID, Name: pattern.Name, Score: score, Matched: matched,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	answer := quarry.QueryAnswer{
		Query:   query,
		Matches: matches,
		Summary: summarize(matches),
	}

	uc.answers.Set(cacheKey, answer, cache.DefaultExpiration)
	uc.logQuery(ctx, answer)

	return answer, nil
}

// History returns recent persisted queries.
func (uc *QueryContextUsecase) History(ctx context.Context, limit int) ([]models.QueryLog, error) {
	return uc.history.Recent(ctx, limit)
}

func (uc *QueryContextUsecase) logQuery(ctx context.Context, answer quarry.QueryAnswer) {
	raw, err := json.Marshal(answer.Matches)
	if err != nil {
		raw = []byte("[]")
	}

	_, err = uc.history.Create(ctx, models.QueryLog{
		Query:      answer.Query,
		Summary:    answer.Summary,
		MatchCount: len(answer.Matches),
		Matches:    raw,
	})
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to record query history",
			slog.String("error", err.Error()),
			slog.String("module", "querycontext"),
		)
	}
}

// scoreEntity accumulates token hits across an entity's attributes. Name
// hits weigh most, then description, then classification/tags.
func scoreEntity(tokens []string, name, description, kind, tags string) (float64, string) {
	nameNorm := quarry.Normalize(name)

	score := 0.0
	matched := ""
	for _, token := range tokens {
		if len(token) < 3 {
			continue
		}
		switch {
		case strings.Contains(nameNorm, token):
			score += 1.0
			if matched == "" {
				matched = "name"
			}
		case quarry.ContainsFold(description, token):
			score += 0.5
			if matched == "" {
				matched = "description"
			}
		case quarry.ContainsFold(kind, token) || quarry.ContainsFold(tags, token):
			score += 0.3
			if matched == "" {
				matched = "tags"
			}
		}
	}
	return score, matched
}

func summarize(matches []quarry.ContextMatch) string {
	if len(matches) == 0 {
		return "No cataloged entity matches this query."
	}

	best := matches[0]
	var noun string
	switch best.Kind {
	case "datasource":
		noun = "data source"
	case "field":
		noun = "catalog field"
	case "pattern":
		noun = "sensitive-data pattern"
	default:
		noun = best.Kind
	}

	if len(matches) == 1 {
		return fmt.Sprintf("Best match: %s %q.", noun, best.Name)
	}
	return fmt.Sprintf("Best match: %s %q (%d related entities).", noun, best.Name, len(matches)-1)
}
