package pdf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"dealdesk/internal/models"
)

// Generator renders pipeline analytics as a PDF document.
type Generator interface {
	AnalyticsReport(w io.Writer, a *models.PipelineAnalytics, generatedAt time.Time) error
}

type ReportGenerator struct {
	FontPath string // TTF for non-Latin stage names; empty falls back to Helvetica
	fontName string
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath}
}

func (g *ReportGenerator) AnalyticsReport(w io.Writer, a *models.PipelineAnalytics, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Pipeline analytics: %s", a.PipelineName), true)
	pdf.SetAuthor("dealdesk", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	font := g.setupFont(pdf)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, "Pipeline analytics", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, generatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	hr(pdf)

	kvLine(pdf, font, "Pipeline", a.PipelineName)
	kvLine(pdf, font, "Pipeline ID", fmt.Sprintf("%d", a.PipelineID))
	kvLine(pdf, font, "Win rate", fmt.Sprintf("%.2f%%", a.WinRate))
	pdf.Ln(2)
	hr(pdf)

	pdf.SetFont(font, "B", 12)
	pdf.CellFormat(0, 7, "Average days per stage", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	pdf.SetFillColor(235, 235, 235)
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(110, 7, "Stage", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 7, "Avg days", "1", 1, "R", true, 0, "")

	pdf.SetFont(font, "", 11)
	for i, s := range a.PerStageAvgDays {
		name := s.StageName
		if name == "" {
			name = s.StageID
		}
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%.2f", s.AvgDays), "1", 1, "R", false, 0, "")
	}
	if len(a.PerStageAvgDays) == 0 {
		pdf.CellFormat(170, 7, "No stages", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

func (g *ReportGenerator) setupFont(pdf *gofpdf.Fpdf) string {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font("DejaVu", "", g.FontPath)
			pdf.AddUTF8Font("DejaVu", "B", g.FontPath)
			if pdf.Ok() {
				return "DejaVu"
			}
			pdf.ClearError()
		}
	}
	return "Helvetica"
}

func kvLine(pdf *gofpdf.Fpdf, font, key, val string) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
