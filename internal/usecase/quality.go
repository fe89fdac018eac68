package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// QualityRepository defines persistence for quality rules and runs.
type QualityRepository interface {
	CreateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error)
	GetRule(ctx context.Context, id string) (models.QualityRule, error)
	ListRules(ctx context.Context, fieldID string) ([]models.QualityRule, error)
	ListEnabledForSource(ctx context.Context, dataSourceID string) ([]models.QualityRule, error)
	UpdateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error)
	DeleteRule(ctx context.Context, id string) error
	CreateRun(ctx context.Context, run models.QualityRun) (models.QualityRun, error)
	ListRuns(ctx context.Context, dataSourceID string, limit int) ([]models.QualityRun, error)
}

type QualityUsecase struct {
	repo       QualityRepository
	sources    DataSourceRepository
	connectors ConnectorOpener
	events     EventPublisher
}

func NewQualityUsecase(
	repo QualityRepository,
	sources DataSourceRepository,
	connectors ConnectorOpener,
	events EventPublisher,
) *QualityUsecase {
	return &QualityUsecase{
		repo:       repo,
		sources:    sources,
		connectors: connectors,
		events:     events,
	}
}

func (uc *QualityUsecase) validate(rule models.QualityRule) error {
	if rule.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if rule.FieldID == "" {
		return domain.ValidationError{Field: "fieldID", Reason: "must not be empty"}
	}
	switch rule.RuleType {
	case domain.RuleTypeNotNull, domain.RuleTypeUnique, domain.RuleTypePattern, domain.RuleTypeRange:
	default:
		return domain.ValidationError{Field: "ruleType", Reason: "unknown rule type"}
	}
	if rule.RuleType == domain.RuleTypePattern {
		var config ruleConfig
		if err := json.Unmarshal(rule.Config, &config); err != nil || config.Pattern == "" {
			return domain.ValidationError{Field: "config", Reason: "pattern rules need a pattern"}
		}
		if _, err := regexp.Compile(config.Pattern); err != nil {
			return domain.ValidationError{Field: "config", Reason: err.Error()}
		}
	}
	return nil
}

func (uc *QualityUsecase) CreateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error) {
	if err := uc.validate(rule); err != nil {
		return models.QualityRule{}, err
	}

	created, err := uc.repo.CreateRule(ctx, rule)
	if err != nil {
		return models.QualityRule{}, err
	}

	uc.events.Notify(ctx, "quality", "created", created.ID)
	return created, nil
}

func (uc *QualityUsecase) GetRule(ctx context.Context, id string) (models.QualityRule, error) {
	return uc.repo.GetRule(ctx, id)
}

func (uc *QualityUsecase) ListRules(ctx context.Context, fieldID string) ([]models.QualityRule, error) {
	return uc.repo.ListRules(ctx, fieldID)
}

func (uc *QualityUsecase) UpdateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error) {
	if err := uc.validate(rule); err != nil {
		return models.QualityRule{}, err
	}

	updated, err := uc.repo.UpdateRule(ctx, rule)
	if err != nil {
		return models.QualityRule{}, err
	}

	uc.events.Notify(ctx, "quality", "updated", updated.ID)
	return updated, nil
}

func (uc *QualityUsecase) DeleteRule(ctx context.Context, id string) error {
	err := uc.repo.DeleteRule(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "quality", "deleted", id)
	return nil
}

func (uc *QualityUsecase) ListRuns(ctx context.Context, dataSourceID string, limit int) ([]models.QualityRun, error) {
	return uc.repo.ListRuns(ctx, dataSourceID, limit)
}

type ruleConfig struct {
	Pattern string   `json:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// RuleResult is the per-rule outcome recorded in a run's details.
type RuleResult struct {
	RuleID      string  `json:"ruleID"`
	RuleName    string  `json:"ruleName"`
	Field       string  `json:"field"`
	RuleType    string  `json:"ruleType"`
	Severity    string  `json:"severity"`
	Passed      bool    `json:"passed"`
	FailedRows  int     `json:"failedRows"`
	CheckedRows int     `json:"checkedRows"`
	Detail      string  `json:"detail,omitempty"`
	Score       float64 `json:"score"`
}

const defaultSampleSize = 200

// Run evaluates every enabled rule for a data source against rows sampled
// through its connector and persists the aggregated result.
func (uc *QualityUsecase) Run(ctx context.Context, dataSourceID string, sampleSize int) (models.QualityRun, error) {
	ctx, span := tracer.Start(ctx, "Quality.Usecase.Run")
	defer span.End()

	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	source, err := uc.sources.Get(ctx, dataSourceID)
	if err != nil {
		return models.QualityRun{}, err
	}

	rules, err := uc.repo.ListEnabledForSource(ctx, dataSourceID)
	if err != nil {
		return models.QualityRun{}, err
	}
	if len(rules) == 0 {
		return models.QualityRun{}, domain.ValidationError{Field: "rules", Reason: "no enabled rules for this source"}
	}

	var config connector.Config
	if len(source.Config) > 0 {
		if err := json.Unmarshal(source.Config, &config); err != nil {
			return models.QualityRun{}, domain.ValidationError{Field: "config", Reason: err.Error()}
		}
	}

	conn, err := uc.connectors.Open(ctx, source.Type, config)
	if err != nil {
		return models.QualityRun{}, err
	}
	defer conn.Close()

	// Rules target catalog fields; group them by the field's tag-derived
	// table so each table is sampled once.
	byTable := map[string][]models.QualityRule{}
	for _, rule := range rules {
		table := tableForField(rule.Field)
		byTable[table] = append(byTable[table], rule)
	}

	results := []RuleResult{}
	passed := 0
	for table, tableRules := range byTable {
		rows, err := conn.SampleRows(ctx, table, nil, sampleSize)
		if err != nil {
			for _, rule := range tableRules {
				results = append(results, RuleResult{
					RuleID:   rule.ID,
					RuleName: rule.Name,
					Field:    rule.Field.Name,
					RuleType: rule.RuleType,
					Severity: rule.Severity,
					Passed:   false,
					Detail:   fmt.Sprintf("sampling failed: %v", err),
				})
			}
			continue
		}

		for _, rule := range tableRules {
			result := evaluateRule(rule, rows)
			if result.Passed {
				passed++
			}
			results = append(results, result)
		}
	}

	score := 0.0
	for _, result := range results {
		score += result.Score
	}
	score = score / float64(len(results)) * 100

	details, err := json.Marshal(results)
	if err != nil {
		return models.QualityRun{}, err
	}

	run := models.QualityRun{
		DataSourceID: dataSourceID,
		Score:        score,
		RuleCount:    len(results),
		PassedCount:  passed,
		SampleSize:   sampleSize,
		Details:      details,
	}

	run, err = uc.repo.CreateRun(ctx, run)
	if err != nil {
		return models.QualityRun{}, err
	}

	uc.events.Notify(ctx, "quality", "run", run.ID)
	return run, nil
}

// tableForField resolves which external table holds a field. Fields carry
// a "table:<name>" tag when the catalog was built from discovery; without
// one the field name's prefix before the first dot is used, then the
// field name itself.
func tableForField(field models.CatalogField) string {
	for _, tag := range field.Tags {
		if len(tag) > 6 && tag[:6] == "table:" {
			return tag[6:]
		}
	}
	for i := 0; i < len(field.Name); i++ {
		if field.Name[i] == '.' {
			return field.Name[:i]
		}
	}
	return field.Name
}

// columnForField strips the table prefix off a dotted field name.
func columnForField(field models.CatalogField) string {
	for i := 0; i < len(field.Name); i++ {
		if field.Name[i] == '.' {
			return field.Name[i+1:]
		}
	}
	return field.Name
}

func evaluateRule(rule models.QualityRule, rows []map[string]any) RuleResult {
	result := RuleResult{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Field:       rule.Field.Name,
		RuleType:    rule.RuleType,
		Severity:    rule.Severity,
		CheckedRows: len(rows),
	}

	column := columnForField(rule.Field)

	var config ruleConfig
	if len(rule.Config) > 0 {
		_ = json.Unmarshal(rule.Config, &config)
	}

	failed := 0
	switch rule.RuleType {
	case domain.RuleTypeNotNull:
		for _, row := range rows {
			if value, ok := row[column]; !ok || value == nil || fmt.Sprint(value) == "" {
				failed++
			}
		}

	case domain.RuleTypeUnique:
		seen := make(map[string]bool, len(rows))
		for _, row := range rows {
			value := fmt.Sprint(row[column])
			if seen[value] {
				failed++
			}
			seen[value] = true
		}

	case domain.RuleTypePattern:
		re, err := regexp.Compile(config.Pattern)
		if err != nil {
			result.Detail = err.Error()
			return result
		}
		for _, row := range rows {
			value, ok := row[column]
			if !ok || value == nil {
				continue
			}
			if !re.MatchString(fmt.Sprint(value)) {
				failed++
			}
		}

	case domain.RuleTypeRange:
		for _, row := range rows {
			number, ok := toFloat(row[column])
			if !ok {
				continue
			}
			if config.Min != nil && number < *config.Min {
				failed++
				continue
			}
			if config.Max != nil && number > *config.Max {
				failed++
			}
		}
	}

	result.FailedRows = failed
	result.Passed = failed == 0
	if len(rows) > 0 {
		result.Score = float64(len(rows)-failed) / float64(len(rows))
	}
	if result.Passed {
		result.Score = 1.0
	}
	return result
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
