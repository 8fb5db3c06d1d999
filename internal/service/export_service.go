package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/repository"
)

// utf8BOM keeps spreadsheet applications from misreading CSV as Latin-1.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var exportHeader = []string{"Product ID", "Product Name", "Store", "Event Type", "Date"}

// ExportService produces the date-filtered event dumps for the admin panel.
type ExportService struct {
	events repository.EventRepository
}

// NewExportService creates an export service.
func NewExportService(events repository.EventRepository) *ExportService {
	return &ExportService{events: events}
}

// WriteCSV writes the filtered event dump as UTF-8 CSV with a BOM.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, dateRange models.DateRange) error {
	rows, err := s.events.ExportRows(ctx, dateRange.NormalizeDay())
	if err != nil {
		return err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ProductID, 10),
			row.ProductTitle,
			row.StoreName,
			string(row.Kind),
			row.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the filtered event dump as an XLSX workbook.
func (s *ExportService) WriteXLSX(ctx context.Context, w io.Writer, dateRange models.DateRange) error {
	rows, err := s.events.ExportRows(ctx, dateRange.NormalizeDay())
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Events"
	f.SetSheetName("Sheet1", sheet)

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			row.ProductID,
			row.ProductTitle,
			row.StoreName,
			string(row.Kind),
			row.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportFilename derives the download name from the active filter, e.g.
// "product_events_filtered_from_20240101_to_20240131.csv".
func ExportFilename(dateRange models.DateRange, ext string) string {
	name := "product_events"
	if !dateRange.IsZero() {
		name += "_filtered"
		if !dateRange.From.IsZero() {
			name += "_from_" + dateRange.From.Format("20060102")
		}
		if !dateRange.To.IsZero() {
			name += "_to_" + dateRange.To.Format("20060102")
		}
	}
	return name + "." + ext
}

// ParseDateRange parses from/to values in YYYY-MM-DD form into a DateRange.
// Empty values leave that bound open; malformed values are an error.
func ParseDateRange(from, to string) (models.DateRange, error) {
	var r models.DateRange
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return r, fmt.Errorf("invalid from date %q", from)
		}
		r.From = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return r, fmt.Errorf("invalid to date %q", to)
		}
		r.To = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("date range ends before it starts")
	}
	return r, nil
}
