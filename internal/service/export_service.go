package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
	"github.com/noah-isme/pchs-registration-api/pkg/export"
)

// ExportLimit caps the number of registrations in one export.
const ExportLimit = 10000

const (
	csvFilename = "pchs_students.csv"
	pdfFilename = "pchs_students.pdf"
)

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

var csvColumns = []export.Column{
	{Header: "Full Name", Quoted: true},
	{Header: "DOB"},
	{Header: "Gender"},
	{Header: "Class", Quoted: true},
	{Header: "Parent", Quoted: true},
	{Header: "Phone", Quoted: true},
	{Header: "Email", Quoted: true},
	{Header: "Address", Quoted: true},
	{Header: "Previous School", Quoted: true},
	{Header: "Registration Fee (XAF)"},
	{Header: "Payment Status"},
	{Header: "Payment Provider", Quoted: true},
	{Header: "Payment Phone", Quoted: true},
	{Header: "Status"},
	{Header: "Created"},
}

var rosterColumns = []export.Column{
	{Header: "#"},
	{Header: "Full Name"},
	{Header: "Class"},
	{Header: "Gender"},
	{Header: "Phone"},
	{Header: "Fee (XAF)"},
	{Header: "Payment"},
	{Header: "Status"},
	{Header: "Submitted"},
}

// ExportService renders the registration list as downloadable files.
type ExportService struct {
	students studentLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students studentLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// CSV renders every registration, newest first, as a spreadsheet-friendly CSV.
func (s *ExportService) CSV(ctx context.Context) (*ExportFile, error) {
	students, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, []string{
			st.FullName,
			st.DateOfBirth.String(),
			st.Gender,
			st.ClassApplyingFor,
			st.ParentGuardianName,
			st.PhoneNumber,
			st.Email,
			st.Address,
			deref(st.PreviousSchool),
			formatFee(st.RegistrationFee),
			paymentStatus(st.PaymentStatus),
			deref(st.PaymentProvider),
			deref(st.PaymentPhone),
			string(st.Status),
			st.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	data, err := s.csv.Render(export.Dataset{Columns: csvColumns, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Export failed.")
	}
	s.logger.Info("registrations exported", zap.String("format", "csv"), zap.Int("rows", len(rows)))
	return &ExportFile{Filename: csvFilename, ContentType: "text/csv; charset=utf-8", Data: data}, nil
}

// PDF renders a printable roster of every registration.
func (s *ExportService) PDF(ctx context.Context) (*ExportFile, error) {
	students, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(students))
	for i, st := range students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			st.FullName,
			st.ClassApplyingFor,
			st.Gender,
			st.PhoneNumber,
			formatFee(st.RegistrationFee),
			paymentStatus(st.PaymentStatus),
			string(st.Status),
			st.CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	subtitle := fmt.Sprintf("%d registrations, generated %s", len(rows), s.now().UTC().Format("2006-01-02 15:04 MST"))
	data, err := s.pdf.Render(export.Dataset{Columns: rosterColumns, Rows: rows}, "PCHS Registrations", subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Export failed.")
	}
	s.logger.Info("registrations exported", zap.String("format", "pdf"), zap.Int("rows", len(rows)))
	return &ExportFile{Filename: pdfFilename, ContentType: "application/pdf", Data: data}, nil
}

func (s *ExportService) load(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.List(ctx, models.StudentFilter{Limit: ExportLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Export failed.")
	}
	return students, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatFee(fee *int64) string {
	if fee == nil {
		return ""
	}
	return strconv.FormatInt(*fee, 10)
}

func paymentStatus(status models.PaymentStatus) string {
	if status == "" {
		return string(models.PaymentStatusPending)
	}
	return string(status)
}
