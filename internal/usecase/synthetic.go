package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// SyntheticRepository defines persistence for synthetic datasets.
type SyntheticRepository interface {
	Create(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error)
	Get(ctx context.Context, id string) (models.SyntheticDataset, error)
	List(ctx context.Context, status string) ([]models.SyntheticDataset, error)
	Update(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error)
	MarkGenerating(ctx context.Context, id string) error
	MarkReady(ctx context.Context, id, objectKey string, byteSize int64) error
	MarkFailed(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
}

// FieldSpec describes one generated column.
type FieldSpec struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"` // uuid, name, email, int, float, choice, pattern
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Choices []string `json:"choices,omitempty"`
	Format  string   `json:"format,omitempty"` // for kind=pattern: # digit, ? letter, literal otherwise
}

const maxRowCount = 100000

type SyntheticUsecase struct {
	repo   SyntheticRepository
	store  ObjectStore
	events EventPublisher
}

func NewSyntheticUsecase(repo SyntheticRepository, store ObjectStore, events EventPublisher) *SyntheticUsecase {
	return &SyntheticUsecase{
		repo:   repo,
		store:  store,
		events: events,
	}
}

func (uc *SyntheticUsecase) validate(dataset models.SyntheticDataset) error {
	if dataset.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if dataset.RowCount <= 0 || dataset.RowCount > maxRowCount {
		return domain.ValidationError{Field: "rowCount", Reason: fmt.Sprintf("must be between 1 and %d", maxRowCount)}
	}
	if dataset.Format != "csv" && dataset.Format != "json" {
		return domain.ValidationError{Field: "format", Reason: "must be csv or json"}
	}

	specs, err := parseFieldSpecs(dataset.Fields)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return domain.ValidationError{Field: "fields", Reason: "at least one field is required"}
	}
	return nil
}

func parseFieldSpecs(raw []byte) ([]FieldSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var specs []FieldSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, domain.ValidationError{Field: "fields", Reason: "must be a JSON array of field specs"}
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, domain.ValidationError{Field: "fields", Reason: "field spec has no name"}
		}
		switch spec.Kind {
		case "uuid", "name", "email", "int", "float":
		case "choice":
			if len(spec.Choices) == 0 {
				return nil, domain.ValidationError{Field: "fields", Reason: spec.Name + ": choice fields need choices"}
			}
		case "pattern":
			if spec.Format == "" {
				return nil, domain.ValidationError{Field: "fields", Reason: spec.Name + ": pattern fields need a format"}
			}
		default:
			return nil, domain.ValidationError{Field: "fields", Reason: spec.Name + ": unknown kind " + spec.Kind}
		}
	}
	return specs, nil
}

func (uc *SyntheticUsecase) Create(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	if dataset.Format == "" {
		dataset.Format = "csv"
	}
	if dataset.RowCount == 0 {
		dataset.RowCount = 100
	}
	if err := uc.validate(dataset); err != nil {
		return models.SyntheticDataset{}, err
	}

	created, err := uc.repo.Create(ctx, dataset)
	if err != nil {
		return models.SyntheticDataset{}, err
	}

	uc.events.Notify(ctx, "synthetic", "created", created.ID)
	return created, nil
}

func (uc *SyntheticUsecase) Get(ctx context.Context, id string) (models.SyntheticDataset, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *SyntheticUsecase) List(ctx context.Context, status string) ([]models.SyntheticDataset, error) {
	return uc.repo.List(ctx, status)
}

func (uc *SyntheticUsecase) Update(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	if err := uc.validate(dataset); err != nil {
		return models.SyntheticDataset{}, err
	}

	updated, err := uc.repo.Update(ctx, dataset)
	if err != nil {
		return models.SyntheticDataset{}, err
	}

	uc.events.Notify(ctx, "synthetic", "updated", updated.ID)
	return updated, nil
}

func (uc *SyntheticUsecase) Delete(ctx context.Context, id string) error {
	dataset, err := uc.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if dataset.ObjectKey != "" {
		// Best effort; the database row is the source of truth.
		_ = uc.store.Delete(ctx, dataset.ObjectKey)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.events.Notify(ctx, "synthetic", "deleted", id)
	return nil
}

// Generate produces the dataset's rows, writes the encoded file to blob
// storage, and moves the dataset to ready (or failed).
func (uc *SyntheticUsecase) Generate(ctx context.Context, id string) (models.SyntheticDataset, error) {
	ctx, span := tracer.Start(ctx, "Synthetic.Usecase.Generate")
	defer span.End()

	dataset, err := uc.repo.Get(ctx, id)
	if err != nil {
		return models.SyntheticDataset{}, err
	}

	specs, err := parseFieldSpecs(dataset.Fields)
	if err != nil {
		return models.SyntheticDataset{}, err
	}
	if len(specs) == 0 {
		return models.SyntheticDataset{}, domain.ValidationError{Field: "fields", Reason: "dataset has no field specs"}
	}

	if err := uc.repo.MarkGenerating(ctx, id); err != nil {
		return models.SyntheticDataset{}, err
	}
	uc.events.Notify(ctx, "synthetic", "status", id)

	data, contentType, err := encodeRows(specs, dataset.RowCount, dataset.Format)
	if err != nil {
		_ = uc.repo.MarkFailed(ctx, id, err.Error())
		uc.events.Notify(ctx, "synthetic", "status", id)
		return models.SyntheticDataset{}, err
	}

	objectKey := fmt.Sprintf("synthetic/%s/%s.%s", id, uuid.NewString(), dataset.Format)
	if err := uc.store.Put(ctx, objectKey, data, contentType); err != nil {
		_ = uc.repo.MarkFailed(ctx, id, err.Error())
		uc.events.Notify(ctx, "synthetic", "status", id)
		return models.SyntheticDataset{}, err
	}

	if err := uc.repo.MarkReady(ctx, id, objectKey, int64(len(data))); err != nil {
		return models.SyntheticDataset{}, err
	}

	uc.events.Notify(ctx, "synthetic", "status", id)
	return uc.repo.Get(ctx, id)
}

// Download streams the generated file.
func (uc *SyntheticUsecase) Download(ctx context.Context, id string) (io.ReadCloser, int64, string, error) {
	dataset, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, "", err
	}
	if dataset.Status != domain.SyntheticStatusReady || dataset.ObjectKey == "" {
		return nil, 0, "", domain.ValidationError{Field: "status", Reason: "dataset is not ready"}
	}

	reader, size, err := uc.store.Get(ctx, dataset.ObjectKey)
	if err != nil {
		return nil, 0, "", err
	}

	contentType := "text/csv"
	if dataset.Format == "json" {
		contentType = "application/json"
	}
	return reader, size, contentType, nil
}

func encodeRows(specs []FieldSpec, rowCount int, format string) ([]byte, string, error) {
	rows := make([][]string, rowCount)
	for i := range rows {
		row := make([]string, len(specs))
		for j, spec := range specs {
			row[j] = generateValue(spec, i)
		}
		rows[i] = row
	}

	if format == "json" {
		objects := make([]map[string]string, rowCount)
		for i, row := range rows {
			obj := make(map[string]string, len(specs))
			for j, spec := range specs {
				obj[spec.Name] = row[j]
			}
			objects[i] = obj
		}
		data, err := json.Marshal(objects)
		return data, "application/json", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := make([]string, len(specs))
	for i, spec := range specs {
		header[i] = spec.Name
	}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), "text/csv", nil
}

var (
	firstNames = []string{"Alex", "Jordan", "Casey", "Riley", "Morgan", "Taylor", "Avery", "Quinn", "Rowan", "Sage"}
	lastNames  = []string{"Smith", "Garcia", "Chen", "Patel", "Kim", "Okafor", "Silva", "Novak", "Haddad", "Berg"}
	domains    = []string{"example.com", "example.org", "mail.test", "corp.test"}
)

func generateValue(spec FieldSpec, row int) string {
	switch spec.Kind {
	case "uuid":
		return uuid.NewString()
	case "name":
		return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
	case "email":
		return fmt.Sprintf("%s.%s%d@%s",
			strings.ToLower(firstNames[rand.Intn(len(firstNames))]),
			strings.ToLower(lastNames[rand.Intn(len(lastNames))]),
			row,
			domains[rand.Intn(len(domains))])
	case "int":
		lo, hi := int(spec.Min), int(spec.Max)
		if hi <= lo {
			lo, hi = 0, 1000
		}
		return strconv.Itoa(lo + rand.Intn(hi-lo+1))
	case "float":
		lo, hi := spec.Min, spec.Max
		if hi <= lo {
			lo, hi = 0, 1000
		}
		return strconv.FormatFloat(lo+rand.Float64()*(hi-lo), 'f', 2, 64)
	case "choice":
		return spec.Choices[rand.Intn(len(spec.Choices))]
	case "pattern":
		return fromFormat(spec.Format)
	default:
		return ""
	}
}

// fromFormat expands a mask: '#' becomes a digit, '?' a letter, anything
// else is copied verbatim.
func fromFormat(format string) string {
	out := make([]byte, len(format))
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case '#':
			out[i] = byte('0' + rand.Intn(10))
		case '?':
			out[i] = byte('a' + rand.Intn(26))
		default:
			out[i] = format[i]
		}
	}
	return string(out)
}
