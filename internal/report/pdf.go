// Package report renders the pre/post cognitive report handed out by the
// training center: a 3-page landscape PDF with a cover, a methodology page
// and a grouped horizontal bar chart of the pre/post results.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"argo-assistant/pkg"
)

var (
	preColor  = [3]int{0, 114, 188}  // blue
	postColor = [3]int{247, 148, 29} // orange
	grayText  = [3]int{80, 80, 80}
)

// Generator renders pre/post reports with gofpdf.
type Generator struct{}

// NewGenerator constructs a report Generator.
func NewGenerator() *Generator { return &Generator{} }

// Render produces the report PDF.  Metrics are drawn in the order given.
func (g *Generator) Render(patientName string, patientAge int, metrics []pkg.MetricResult) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	addCoverPage(pdf, tr)
	addMethodologyPage(pdf, tr)
	addChartPage(pdf, tr, patientName, patientAge, metrics)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addCoverPage(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 44)
	pdf.Ln(40)
	pdf.CellFormat(0, 10, tr("Estudio comparativo de alumnos CEM 2025"), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 28)
	pdf.MultiCell(0, 12, tr("Evaluación de funciones ejecutivas pre y post período de aplicación de programa CEM"), "", "C", false)
}

func addMethodologyPage(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 44)
	pdf.Ln(20)
	pdf.CellFormat(0, 10, tr("Metodología"), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 28)
	pdf.MultiCell(0, 12, tr("* Administración pre/post de Yelow red (funciones ejecutivas)\n"+
		"* Experiencia de intervención realizada en el programa\n  correspondiente a: PIPS"), "", "L", false)
}

// addChartPage draws the grouped horizontal bar chart on the right half of
// the page, metric labels on the left, mirroring the original layout.
func addChartPage(pdf *gofpdf.Fpdf, tr func(string) string, patientName string, patientAge int, metrics []pkg.MetricResult) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 32)
	pdf.Ln(10)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s (edad %d)", patientName, patientAge)), "", 1, "L", false, 0, "")

	const (
		chartLeft  = 150.0 // chart area begins on the right half
		chartWidth = 120.0
		rowHeight  = 14.0
		barHeight  = 5.0
		topY       = 45.0
	)

	maxVal := 1.0
	for _, m := range metrics {
		if m.Pre > maxVal {
			maxVal = m.Pre
		}
		if m.Post > maxVal {
			maxVal = m.Post
		}
	}

	pdf.SetFont("Helvetica", "", 12)
	for i, m := range metrics {
		y := topY + float64(i)*rowHeight

		pdf.SetTextColor(grayText[0], grayText[1], grayText[2])
		pdf.SetXY(40, y+rowHeight/2-4)
		pdf.CellFormat(chartLeft-50, 8, tr(m.Name), "", 0, "R", false, 0, "")

		drawBar(pdf, chartLeft, y+1, chartWidth*m.Pre/maxVal, barHeight, preColor, m.Pre)
		drawBar(pdf, chartLeft, y+1+barHeight+1, chartWidth*m.Post/maxVal, barHeight, postColor, m.Post)
	}

	legendY := topY + float64(len(metrics))*rowHeight + 8
	drawLegend(pdf, tr, chartLeft, legendY)
	pdf.SetTextColor(0, 0, 0)
}

func drawBar(pdf *gofpdf.Fpdf, x, y, w, h float64, color [3]int, value float64) {
	pdf.SetFillColor(color[0], color[1], color[2])
	if w < 0.5 {
		w = 0.5
	}
	pdf.Rect(x, y, w, h, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x+w+1, y-1)
	pdf.CellFormat(12, h+2, trimFloat(value), "", 0, "L", false, 0, "")
}

func drawLegend(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64) {
	pdf.SetFillColor(preColor[0], preColor[1], preColor[2])
	pdf.Rect(x, y, 5, 5, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x+7, y-1.5)
	pdf.CellFormat(20, 8, "PRE", "", 0, "L", false, 0, "")

	pdf.SetFillColor(postColor[0], postColor[1], postColor[2])
	pdf.Rect(x+30, y, 5, 5, "F")
	pdf.SetXY(x+37, y-1.5)
	pdf.CellFormat(20, 8, "POST", "", 0, "L", false, 0, "")
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
