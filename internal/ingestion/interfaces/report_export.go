package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ingestion "energy-process/internal/ingestion/domain"
)

// BuildFileReportPDF renders a processing report for one uploaded file.
func BuildFileReportPDF(file *ingestion.UploadedFile, records []ingestion.EnergyRecord, verrs []ingestion.ValidationError) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy File Processing Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("File: %s", file.Filename))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("State: %s", file.State))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Uploaded: %s", file.UploadedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if !file.ProcessedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Processed: %s", file.ProcessedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d total, %d persisted, %d rejected", file.Total, file.Successful, file.Failed))
	pdf.Ln(8)

	// Records table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "Line", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "CUPS", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "From", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "To", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Net Gen P1-P6", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, record := range records {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", record.Line), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, record.CUPS, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, record.PeriodStart.Format(ingestion.DateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, record.PeriodEnd.Format(ingestion.DateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", record.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", sumVector(record.NetGenerated)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(verrs) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Rejections")
		pdf.Ln(7)
		pdf.CellFormat(15, 6, "Line", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "Kind", "1", 0, "C", false, 0, "")
		pdf.CellFormat(115, 6, "Description", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, verr := range verrs {
			pdf.CellFormat(15, 6, fmt.Sprintf("%d", verr.Line), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, string(verr.Kind), "1", 0, "L", false, 0, "")
			pdf.CellFormat(115, 6, clip(verr.Description, 90), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFileReportXLSX renders a processing report workbook for one uploaded file.
func BuildFileReportXLSX(file *ingestion.UploadedFile, records []ingestion.EnergyRecord, verrs []ingestion.ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	recordsSheet := "records"
	errorsSheet := "errors"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(recordsSheet)
	f.NewSheet(errorsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Energy File Processing Report")
	_ = f.SetCellValue(summarySheet, "A3", "File")
	_ = f.SetCellValue(summarySheet, "B3", file.Filename)
	_ = f.SetCellValue(summarySheet, "A4", "Content Hash")
	_ = f.SetCellValue(summarySheet, "B4", file.ContentHash)
	_ = f.SetCellValue(summarySheet, "A5", "State")
	_ = f.SetCellValue(summarySheet, "B5", string(file.State))
	_ = f.SetCellValue(summarySheet, "A6", "Total Rows")
	_ = f.SetCellValue(summarySheet, "B6", file.Total)
	_ = f.SetCellValue(summarySheet, "A7", "Persisted")
	_ = f.SetCellValue(summarySheet, "B7", file.Successful)
	_ = f.SetCellValue(summarySheet, "A8", "Rejected")
	_ = f.SetCellValue(summarySheet, "B8", file.Failed)
	_ = f.SetCellValue(summarySheet, "A9", "Uploaded")
	_ = f.SetCellValue(summarySheet, "B9", file.UploadedAt.Format(time.RFC3339))
	if !file.ProcessedAt.IsZero() {
		_ = f.SetCellValue(summarySheet, "A10", "Processed")
		_ = f.SetCellValue(summarySheet, "B10", file.ProcessedAt.Format(time.RFC3339))
	}

	headers := []string{"Line", "CUPS", "Installation", "From", "To", "Type"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(recordsSheet, cell, header)
	}
	for p := 1; p <= ingestion.NumPeriods; p++ {
		cell, _ := excelize.CoordinatesToCellName(len(headers)+p, 1)
		_ = f.SetCellValue(recordsSheet, cell, fmt.Sprintf("Net Gen P%d", p))
	}
	for i, record := range records {
		row := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), record.Line)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), record.CUPS)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), record.Installation)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), record.PeriodStart.Format(ingestion.DateLayout))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", row), record.PeriodEnd.Format(ingestion.DateLayout))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("F%d", row), record.Type)
		for p := 0; p < ingestion.NumPeriods; p++ {
			cell, _ := excelize.CoordinatesToCellName(len(headers)+p+1, row)
			_ = f.SetCellValue(recordsSheet, cell, record.NetGenerated[p])
		}
	}

	_ = f.SetCellValue(errorsSheet, "A1", "Line")
	_ = f.SetCellValue(errorsSheet, "B1", "Kind")
	_ = f.SetCellValue(errorsSheet, "C1", "Description")
	for i, verr := range verrs {
		row := i + 2
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("A%d", row), verr.Line)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("B%d", row), string(verr.Kind))
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("C%d", row), verr.Description)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sumVector(vector ingestion.PeriodVector) float64 {
	var total float64
	for _, value := range vector {
		total += value
	}
	return total
}

func clip(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-1] + "…"
}
