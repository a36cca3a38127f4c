package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/escriba/minuta/internal/interfaces"
)

// Service renders contract markdown into PDF bytes.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ConvertMarkdownToPDF converts contract markdown to a PDF byte slice. The
// layout is deliberately notarial: serif body text, centered top-level
// heading, ruled tables for payment schedules.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	pdf.SetFont("Times", "", 11)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &contractRenderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		font:      "Times",
		size:      11,
	}

	if err := ast.Walk(doc, renderer.walk); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render contract PDF")
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write PDF output")
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("Contract PDF generated")
	return buf.Bytes(), nil
}

// contractRenderer walks the markdown AST and emits fpdf drawing calls. The
// translator maps UTF-8 text onto the cp1252 core fonts so Portuguese
// accents survive.
type contractRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	font      string
	size      float64
	bold      bool
	italic    bool
	heading   int
	listLevel int
}

func (r *contractRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *contractRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		return r.handleParagraph(entering)
	case ast.KindText:
		return r.handleText(n.(*ast.Text), entering)
	case ast.KindEmphasis:
		return r.handleEmphasis(n.(*ast.Emphasis), entering)
	case ast.KindList:
		return r.handleList(entering)
	case ast.KindListItem:
		return r.handleListItem(entering)
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(3)
			r.pdf.Line(40, r.pdf.GetY(), 170, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.heading = n.Level
		r.pdf.Ln(6)
		size := 11.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		default:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.heading = 0
		r.pdf.Ln(8)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleParagraph(entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(7)
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	content := r.translate(string(n.Text(r.source)))

	// Top-level headings are centered, the notarial convention for titles.
	if r.heading == 1 {
		r.pdf.CellFormat(0, 6, content, "", 1, "C", false, 0, "")
		return ast.WalkContinue, nil
	}

	r.pdf.Write(5.5, content)
	if n.SoftLineBreak() || n.HardLineBreak() {
		r.pdf.Write(5.5, " ")
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleEmphasis(n *ast.Emphasis, entering bool) (ast.WalkStatus, error) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	if r.heading == 0 {
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleList(entering bool) (ast.WalkStatus, error) {
	if entering {
		r.listLevel++
	} else {
		r.listLevel--
		if r.listLevel == 0 {
			r.pdf.Ln(3)
		}
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleListItem(entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(5.5)
		indent := float64(r.listLevel) * 5.0
		r.pdf.SetX(20 + indent)
		r.pdf.Write(5.5, r.translate("• "))
	}
	return ast.WalkContinue, nil
}

func (r *contractRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.extractRow(c))
			case *extast.TableHeader:
				collect(c)
			}
		}
	}
	collect(n)

	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *contractRenderer) extractRow(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, r.translate(string(cell.Text(r.source))))
		}
	}
	return row
}

// renderTable draws a ruled table with column widths derived from measured
// content, scaled to the printable width.
func (r *contractRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const (
		tableWidth = 170.0
		fontSize   = 9.0
		rowHeight  = 6.0
	)

	numCols := len(rows[0])
	r.pdf.SetFont(r.font, "", fontSize)

	colWidths := make([]float64, numCols)
	for _, row := range rows {
		for i, cell := range row {
			if i >= numCols {
				break
			}
			w := r.pdf.GetStringWidth(cell) + 4
			if w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	total := 0.0
	for i := range colWidths {
		if colWidths[i] < 14 {
			colWidths[i] = 14
		}
		total += colWidths[i]
	}
	scale := tableWidth / total
	for i := range colWidths {
		colWidths[i] *= scale
	}

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", fontSize)
			r.pdf.SetFillColor(235, 235, 235)
		} else {
			r.pdf.SetFont(r.font, "", fontSize)
			r.pdf.SetFillColor(255, 255, 255)
		}

		if r.pdf.GetY()+rowHeight > 277 {
			r.pdf.AddPage()
		}

		r.pdf.SetX(20)
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = r.fitCell(row[j], colWidths[j]-2)
			}
			r.pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(rowHeight)
	}
	r.pdf.Ln(3)
	r.updateFont()
}

// fitCell truncates cell text with an ellipsis when it would overflow its
// column.
func (r *contractRenderer) fitCell(s string, width float64) string {
	if r.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 1 && r.pdf.GetStringWidth(s+"...") > width {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	return s + "..."
}
