package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/export"
	"github.com/noah-isme/school-office-api/pkg/jobs"
	"github.com/noah-isme/school-office-api/pkg/storage"
)

type documentContractReader interface {
	FindLatestByStudent(ctx context.Context, kind models.ContractKind, studentID string) (*models.ContractDetail, error)
	SetPDFPath(ctx context.Context, kind models.ContractKind, id, path string) error
}

// RenderedDocument is a ready-to-download PDF with its suggested filename.
type RenderedDocument struct {
	Filename string
	Content  []byte
}

type archivePayload struct {
	Kind       models.ContractKind
	ContractID string
	Filename   string
	Content    []byte
}

// DocumentService renders contract PDFs. Single-kind documents render the
// latest contract of that kind for a student; combined documents gather every
// kind the student has a contract for into one file. Rendered files are
// archived on disk in the background and linked back to the contract row.
type DocumentService struct {
	contracts  documentContractReader
	students   studentReader
	pdf        *export.PDFExporter
	store      *storage.LocalStorage
	archive    *jobs.Queue
	schoolName string
	logger     *zap.Logger
}

// DocumentServiceConfig carries the tunables for PDF archival.
type DocumentServiceConfig struct {
	SchoolName string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewDocumentService constructs the service and its archival queue. Call
// Start before serving and Stop on shutdown.
func NewDocumentService(contracts documentContractReader, students studentReader, pdf *export.PDFExporter, store *storage.LocalStorage, cfg DocumentServiceConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	s := &DocumentService{
		contracts:  contracts,
		students:   students,
		pdf:        pdf,
		store:      store,
		schoolName: cfg.SchoolName,
		logger:     logger,
	}
	s.archive = jobs.NewQueue("document-archive", s.archiveJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the archival workers.
func (s *DocumentService) Start(ctx context.Context) {
	s.archive.Start(ctx)
}

// Stop drains the archival workers.
func (s *DocumentService) Stop() {
	s.archive.Stop()
}

// Render produces the PDF for a student's most recent contract of one kind.
func (s *DocumentService) Render(ctx context.Context, kind models.ContractKind, studentID string) (*RenderedDocument, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	contract, err := s.contracts.FindLatestByStudent(ctx, kind, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student has no %s contract", kind.Label()))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}

	doc := export.ContractDocument{
		SchoolName: s.schoolName,
		Title:      kind.Label(),
		Subtitle:   student.FullName(),
		IssuedAt:   contract.CreatedAt.Format("02.01.2006"),
		Sections: []export.DocumentSection{
			studentSection(student),
			contractSection(kind.Label(), contract.Data),
		},
		Signatures: []string{"Veli", "Okul Yetkilisi"},
	}
	content, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}

	filename := documentFilename(student.FullName(), kind.Label())
	s.enqueueArchive(kind, contract.ID, filename, content)
	return &RenderedDocument{Filename: filename, Content: content}, nil
}

// RenderCombined gathers the requested kinds (or all of them when kinds is
// empty) into a single document. Kinds the student has no contract for are
// skipped; at least one must exist.
func (s *DocumentService) RenderCombined(ctx context.Context, studentID string, kinds []models.ContractKind) (*RenderedDocument, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if len(kinds) == 0 {
		kinds = models.ContractKinds
	}

	sections := []export.DocumentSection{studentSection(student)}
	var latest time.Time
	for _, kind := range kinds {
		contract, err := s.contracts.FindLatestByStudent(ctx, kind, studentID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
		}
		sections = append(sections, contractSection(kind.Label(), contract.Data))
		if contract.CreatedAt.After(latest) {
			latest = contract.CreatedAt
		}
	}
	if len(sections) == 1 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no contracts to combine")
	}

	doc := export.ContractDocument{
		SchoolName: s.schoolName,
		Title:      "Sözleşme Dosyası",
		Subtitle:   student.FullName(),
		IssuedAt:   latest.Format("02.01.2006"),
		Sections:   sections,
		Signatures: []string{"Veli", "Okul Yetkilisi"},
	}
	content, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}
	return &RenderedDocument{Filename: documentFilename(student.FullName(), "Sözleşme Dosyası"), Content: content}, nil
}

func (s *DocumentService) enqueueArchive(kind models.ContractKind, contractID, filename string, content []byte) {
	err := s.archive.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "archive-pdf",
		Payload: archivePayload{
			Kind:       kind,
			ContractID: contractID,
			Filename:   filename,
			Content:    content,
		},
	})
	if err != nil {
		// Archival is best effort; the caller already has the bytes.
		s.logger.Warn("failed to enqueue pdf archive", zap.String("contract_id", contractID), zap.Error(err))
	}
}

func (s *DocumentService) archiveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(archivePayload)
	if !ok {
		return fmt.Errorf("unexpected archive payload %T", job.Payload)
	}
	path, err := s.store.Save(payload.Filename, payload.Content)
	if err != nil {
		return err
	}
	if err := s.contracts.SetPDFPath(ctx, payload.Kind, payload.ContractID, path); err != nil {
		return err
	}
	s.logger.Debug("archived contract pdf",
		zap.String("contract_id", payload.ContractID),
		zap.String("path", path))
	return nil
}

func studentSection(student *models.Student) export.DocumentSection {
	fields := []export.DocumentField{
		{Label: "Ad Soyad", Value: student.FullName()},
		{Label: "TC Kimlik No", Value: student.TCNumber},
		{Label: "Sınıf", Value: student.Grade},
		{Label: "Veli", Value: student.ParentName},
		{Label: "Veli Telefon", Value: student.ParentPhone},
	}
	return export.DocumentSection{Title: "Öğrenci Bilgileri", Fields: fields}
}

// contractSection flattens the stored JSON payload into label/value rows.
// Nested values are rendered inline; key order is stable.
func contractSection(title string, data types.JSONText) export.DocumentSection {
	section := export.DocumentSection{Title: title}
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload) == 0 {
		return section
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		section.Fields = append(section.Fields, export.DocumentField{
			Label: humanizeKey(key),
			Value: stringifyValue(payload[key]),
		})
	}
	return section
}

func humanizeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Evet"
		}
		return "Hayır"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func documentFilename(studentName, label string) string {
	base := fmt.Sprintf("%s - %s", studentName, label)
	return sanitizeFilename(base) + ".pdf"
}

// sanitizeFilename keeps the name safe for disk and Content-Disposition
// headers, folding Turkish letters to ASCII.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"ç", "c", "Ç", "C",
		"ğ", "g", "Ğ", "G",
		"ı", "i", "İ", "I",
		"ö", "o", "Ö", "O",
		"ş", "s", "Ş", "S",
		"ü", "u", "Ü", "U",
	)
	name = replacer.Replace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
