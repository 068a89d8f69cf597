package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivanoskov/billbot/internal/dates"
	"github.com/ivanoskov/billbot/internal/model"
	"github.com/ivanoskov/billbot/internal/repository"
)

const (
	// DefaultListLimit bounds /list when no count is given.
	DefaultListLimit = 10
	// MaxListLimit is the hard cap for /list.
	MaxListLimit = 50
)

// ErrNoBills marks an empty query result. It is a normal outcome, reported
// to the user distinctly from failures.
var ErrNoBills = errors.New("no bills found")

// ErrBillNotFound is returned when a delete targets a missing record.
var ErrBillNotFound = errors.New("bill not found")

// Renderer produces the spreadsheet artifact for a set of bills.
type Renderer interface {
	GenerateExcel(bills []model.Bill, userID int64, start, end *time.Time) (string, error)
}

// ChartRenderer produces the summary chart attached to reports.
type ChartRenderer interface {
	SpendingByType(bills []model.Bill) ([]byte, error)
}

// Sender delivers a report by email.
type Sender interface {
	SendBillsReport(to string, excelPath string, imagePaths []string, startDate, endDate *string) error
}

// ImageStore owns the downloaded bill images on disk.
type ImageStore interface {
	Remove(path string) error
	Exists(path string) bool
}

// ExportReport is a rendered export: the workbook path plus an optional
// chart.
type ExportReport struct {
	ExcelPath string
	ChartPNG  []byte
	Bills     []model.Bill
}

// BillTracker drives the bill record store and the report collaborators on
// behalf of the conversation flows.
type BillTracker struct {
	repo     repository.Repository
	renderer Renderer
	charts   ChartRenderer
	mailer   Sender
	images   ImageStore
}

func NewBillTracker(repo repository.Repository, renderer Renderer, charts ChartRenderer, mailer Sender, images ImageStore) *BillTracker {
	return &BillTracker{
		repo:     repo,
		renderer: renderer,
		charts:   charts,
		mailer:   mailer,
		images:   images,
	}
}

// SaveBill persists a pending bill.
func (s *BillTracker) SaveBill(ctx context.Context, bill *model.Bill) error {
	if bill.ImagePath == "" {
		return fmt.Errorf("bill has no image path")
	}
	return s.repo.CreateBill(ctx, bill)
}

// RecentBills returns the user's newest bills, clamped to MaxListLimit.
func (s *BillTracker) RecentBills(ctx context.Context, userID int64, limit int) ([]model.Bill, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.GetBills(ctx, userID, repository.BillFilter{Limit: limit})
}

// BillsInRange returns all bills within the optional [start, end] window,
// newest first. Bounds are normalized YYYY-MM-DD strings (nil = unbounded).
func (s *BillTracker) BillsInRange(ctx context.Context, userID int64, startDate, endDate *string) ([]model.Bill, error) {
	filter, err := rangeFilter(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBills(ctx, userID, filter)
}

// DeleteBill removes a record and its backing image.
func (s *BillTracker) DeleteBill(ctx context.Context, id string, userID int64) error {
	bill, err := s.repo.GetBillByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if bill == nil {
		return ErrBillNotFound
	}

	if err := s.images.Remove(bill.ImagePath); err != nil {
		return err
	}
	return s.repo.DeleteBill(ctx, id, userID)
}

// ExportBills renders the spreadsheet and summary chart for the window.
// Returns ErrNoBills when the window is empty.
func (s *BillTracker) ExportBills(ctx context.Context, userID int64, startDate, endDate *string) (*ExportReport, error) {
	bills, err := s.BillsInRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, ErrNoBills
	}

	start, end, err := rangeBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	excelPath, err := s.renderer.GenerateExcel(bills, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to generate excel: %w", err)
	}

	// The chart is best-effort decoration; the export stands without it
	chartPNG, err := s.charts.SpendingByType(bills)
	if err != nil {
		chartPNG = nil
	}

	return &ExportReport{ExcelPath: excelPath, ChartPNG: chartPNG, Bills: bills}, nil
}

// EmailBills renders the report and delivers it with the bill images
// attached. Returns ErrNoBills when the window is empty.
func (s *BillTracker) EmailBills(ctx context.Context, userID int64, email string, startDate, endDate *string) error {
	report, err := s.ExportBills(ctx, userID, startDate, endDate)
	if err != nil {
		return err
	}

	images := make([]string, 0, len(report.Bills))
	for _, bill := range report.Bills {
		if s.images.Exists(bill.ImagePath) {
			images = append(images, bill.ImagePath)
		}
	}

	return s.mailer.SendBillsReport(email, report.ExcelPath, images, startDate, endDate)
}

func rangeFilter(startDate, endDate *string) (repository.BillFilter, error) {
	start, end, err := rangeBounds(startDate, endDate)
	if err != nil {
		return repository.BillFilter{}, err
	}
	return repository.BillFilter{StartDate: start, EndDate: end}, nil
}

func rangeBounds(startDate, endDate *string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startDate != nil {
		t, err := time.Parse(dates.ISO, *startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start date %q: %w", *startDate, err)
		}
		start = &t
	}
	if endDate != nil {
		t, err := time.Parse(dates.ISO, *endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end date %q: %w", *endDate, err)
		}
		// Inclusive through the end of the day
		t = t.Add(24*time.Hour - time.Second)
		end = &t
	}
	return start, end, nil
}
