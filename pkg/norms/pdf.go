package norms

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Page layout in millimeters.
const (
	pdfMargin     = 20.0
	pdfLineHeight = 5.0
	pdfCreator    = "NormaComex Platform"
	noContent     = "Contenido no disponible."
)

// ExportPDF renders n as an A4 document and writes it to w.
func ExportPDF(w io.Writer, n *Norm) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("%s - %s", n.Label(), n.Title), true)
	pdf.SetSubject(n.Summary, true)
	pdf.SetAuthor(n.IssuingAuthority, true)
	pdf.SetKeywords(fmt.Sprintf("%s, %s, Colombia", n.Category, n.Type), true)
	pdf.SetCreator(pdfCreator, true)

	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfMargin

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(pdfMargin, pdfMargin, tr(n.Label()))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(pdfMargin, pdfMargin+7, tr("Autoridad: "+n.IssuingAuthority))
	pdf.Text(pdfMargin, pdfMargin+12, tr("Fecha: "+n.Date))
	pdf.Text(pdfMargin, pdfMargin+17, tr("Categoría: "+string(n.Category)))

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdfMargin, pdfMargin+22, pageWidth-pdfMargin, pdfMargin+22)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	titleLines := splitLines(pdf, n.Title, contentWidth)
	y := pdfMargin + 30
	for i, line := range titleLines {
		pdf.Text(pdfMargin, y+float64(i)*pdfLineHeight, tr(line))
	}
	y += float64(len(titleLines))*pdfLineHeight + 5

	pdf.SetFont("Helvetica", "", 10)
	body := n.FullText
	if body == "" {
		body = noContent
	}
	for _, line := range splitLines(pdf, body, contentWidth) {
		if y > pageHeight-pdfMargin {
			pdf.AddPage()
			y = pdfMargin
		}
		pdf.Text(pdfMargin, y, tr(line))
		y += pdfLineHeight
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("norms: render pdf: %w", err)
	}
	return nil
}

// splitLines wraps text to width with the current font. Blank source lines
// are kept so paragraphs stay separated.
func splitLines(pdf *fpdf.Fpdf, text string, width float64) []string {
	var out []string
	for para := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(para) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, pdf.SplitText(para, width)...)
	}
	return out
}

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	nonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9]`)
	spaces        = regexp.MustCompile(`\s+`)
)

// stripAccents decomposes s and drops the combining marks.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// maxTitleChars bounds the title part of an export file name.
const maxTitleChars = 50

// PDFFileName returns the download name for n, such as
// "Norma_Decreto_0125_Modernizacion_Digital_del_Regimen_de_Aduanas_2025.pdf".
func PDFFileName(n *Norm) string {
	title := n.Title
	if title == "" {
		title = "Documento"
	}
	title = nonAlnumSpace.ReplaceAllString(stripAccents(title), "")
	if len(title) > maxTitleChars {
		title = title[:maxTitleChars]
	}
	title = spaces.ReplaceAllString(strings.TrimSpace(title), "_")

	typ := nonAlnum.ReplaceAllString(stripAccents(n.Type), "")
	number := nonAlnum.ReplaceAllString(stripAccents(n.Number), "")
	return fmt.Sprintf("Norma_%s_%s_%s.pdf", typ, number, title)
}
