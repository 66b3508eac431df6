package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/export"
)

// BulkDeleteHistoryRequest addresses contracts across kinds.
type BulkDeleteHistoryRequest struct {
	Items []models.HistoryItemRef `json:"items" validate:"required,min=1,dive"`
}

type contractDeleter interface {
	List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error)
	Delete(ctx context.Context, kind models.ContractKind, id string) error
}

// HistoryService merges the six contract-kind lists into one chronological
// view and orchestrates deletes that span kinds.
type HistoryService struct {
	contracts contractDeleter
	cache     *CacheService
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHistoryService constructs the history service.
func NewHistoryService(contracts contractDeleter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *HistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		contracts: contracts,
		cache:     cache,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List fetches all six kinds concurrently and merges them newest first.
// The unfiltered result is cached; filters are applied after the merge.
func (s *HistoryService) List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if hit, _ := s.cache.Get(ctx, historyCacheKey, &entries); !hit {
		merged, err := s.fetchAll(ctx)
		if err != nil {
			return nil, err
		}
		entries = merged
		_ = s.cache.Set(ctx, historyCacheKey, entries, 0)
	}
	return filterHistory(entries, filter), nil
}

func (s *HistoryService) fetchAll(ctx context.Context) ([]models.HistoryEntry, error) {
	var mu sync.Mutex
	merged := make([]models.HistoryEntry, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range models.ContractKinds {
		kind := kind
		g.Go(func() error {
			start := time.Now()
			contracts, err := s.contracts.List(gctx, kind)
			s.metrics.ObserveDBQuery("history_list_"+string(kind), time.Since(start))
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, contract := range contracts {
				merged = append(merged, models.HistoryEntry{
					ContractDetail: contract,
					Kind:           kind,
					KindLabel:      kind.Label(),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract history")
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}

func filterHistory(entries []models.HistoryEntry, filter models.HistoryFilter) []models.HistoryEntry {
	if filter.Search == "" && filter.Kind == "" {
		return entries
	}
	search := strings.ToLower(filter.Search)
	filtered := make([]models.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if filter.Kind != "" && entry.Kind != filter.Kind {
			continue
		}
		if search != "" {
			name := strings.ToLower(entry.StudentFirstName + " " + entry.StudentLastName)
			if !strings.Contains(name, search) && !strings.Contains(entry.StudentTCNumber, search) {
				continue
			}
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// BulkDelete removes the addressed contracts, one delete per item, run
// concurrently. Items fail independently; the report carries succeeded and
// failed counts only (all / none / partial outcome), matching what the
// history view shows the operator.
func (s *HistoryService) BulkDelete(ctx context.Context, req BulkDeleteHistoryRequest) (*models.BulkDeleteReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "items must be a non-empty array")
	}
	for _, item := range req.Items {
		if _, ok := models.ParseContractKind(string(item.Kind)); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown contract kind "+string(item.Kind))
		}
	}

	var succeeded, failed int
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, item := range req.Items {
		item := item
		g.Go(func() error {
			err := s.contracts.Delete(gctx, item.Kind, item.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.Warn("history bulk delete item failed",
					zap.String("kind", string(item.Kind)),
					zap.String("id", item.ID),
					zap.Error(err))
			} else {
				succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	_ = s.cache.Invalidate(ctx, historyCacheKey)
	s.metrics.ObserveBulkDelete(succeeded, failed)
	report := &models.BulkDeleteReport{Succeeded: succeeded, Failed: failed}
	s.logger.Info("history bulk delete finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.String("outcome", report.Outcome()))
	return report, nil
}

// ExportCSV renders the filtered history as a CSV document.
func (s *HistoryService) ExportCSV(ctx context.Context, filter models.HistoryFilter) ([]byte, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export history")
	}
	return data, nil
}

// ExportPDF renders the filtered history as a tabular PDF.
func (s *HistoryService) ExportPDF(ctx context.Context, filter models.HistoryFilter) ([]byte, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(dataset, "Sözleşme Geçmişi")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export history")
	}
	return data, nil
}

func (s *HistoryService) dataset(ctx context.Context, filter models.HistoryFilter) (export.Dataset, error) {
	entries, err := s.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Headers: []string{"kind", "student", "tc_number", "created_at"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"kind":       entry.KindLabel,
			"student":    entry.StudentFirstName + " " + entry.StudentLastName,
			"tc_number":  entry.StudentTCNumber,
			"created_at": entry.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return dataset, nil
}
