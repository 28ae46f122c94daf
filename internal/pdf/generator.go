package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// ReportData holds everything the adherence report renders.
type ReportData struct {
	UserID        string
	CycleID       string
	StartDate     time.Time
	ActiveDays    int
	RestDays      int
	GeneratedAt   time.Time
	ScheduledSoFar int
	TakenCount     int
	DoubleDays     int
	MissedCount    int
	AdherenceRate  float64 // 0..100
	MissedStreak   int
	Rows           []ReportRow
}

// ReportRow is one cycle day in the report table.
type ReportRow struct {
	DayNumber   int
	Date        time.Time
	Status      string
	TakenAt     string
	Note        string
}

// Generator renders adherence reports as PDF documents
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new PDF generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate renders the adherence report and returns the PDF bytes
func (g *Generator) Generate(data *ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	g.addHeader(pdf, data)
	g.addSummary(pdf, data)
	g.addDayTable(pdf, data)
	g.addFooter(pdf, data)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to render adherence report", zap.Error(err), zap.String("cycle_id", data.CycleID))
		return nil, fmt.Errorf("failed to render adherence report: %w", err)
	}

	g.logger.Info("adherence report generated",
		zap.String("cycle_id", data.CycleID),
		zap.Int("days", len(data.Rows)),
		zap.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *Generator) addHeader(pdf *gofpdf.Fpdf, data *ReportData) {
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Medication Adherence Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 5, fmt.Sprintf("Cycle started %s  |  %d active days, %d rest days",
		data.StartDate.Format("2006-01-02"), data.ActiveDays, data.RestDays))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Generated %s", data.GeneratedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)
	pdf.SetTextColor(0, 0, 0)
}

func (g *Generator) addSummary(pdf *gofpdf.Fpdf, data *ReportData) {
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 10)
	summary := [][2]string{
		{"Doses due so far", fmt.Sprintf("%d", data.ScheduledSoFar)},
		{"Doses taken", fmt.Sprintf("%d", data.TakenCount)},
		{"Double-dose days", fmt.Sprintf("%d", data.DoubleDays)},
		{"Doses missed", fmt.Sprintf("%d", data.MissedCount)},
		{"Adherence rate", fmt.Sprintf("%.1f%%", data.AdherenceRate)},
		{"Current missed streak", fmt.Sprintf("%d", data.MissedStreak)},
	}
	for _, row := range summary {
		pdf.Cell(60, 6, row[0])
		pdf.Cell(0, 6, row[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)
}

func (g *Generator) addDayTable(pdf *gofpdf.Fpdf, data *ReportData) {
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Daily Record")
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(15, 7, "Day", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Taken At", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Note", "1", 0, "C", true, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", row.DayNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, row.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, row.Status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, row.TakenAt, "1", 0, "C", false, 0, "")
		note := row.Note
		if len(note) > 38 {
			note = note[:35] + "..."
		}
		pdf.CellFormat(60, 6, note, "1", 0, "L", false, 0, "")
		pdf.Ln(6)
	}
}

func (g *Generator) addFooter(pdf *gofpdf.Fpdf, data *ReportData) {
	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(130, 130, 130)
	pdf.Cell(0, 5, "This report reflects self-recorded intakes and is not a clinical document.")
	pdf.SetTextColor(0, 0, 0)
}
