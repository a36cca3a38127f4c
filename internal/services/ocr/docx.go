package ocr

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocxText pulls the plain text out of a .docx file. Paragraphs become
// lines; table rows are flattened to "[Tabela]: cell | cell" lines so the
// model can still read schedules embedded in tables.
func extractDocxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("failed to read document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	return parseDocumentXML(docXML)
}

// parseDocumentXML walks the WordprocessingML token stream. Text inside
// tables is buffered per cell so rows can be joined; everything else is
// flushed per paragraph.
func parseDocumentXML(docXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))

	var (
		lines     []string
		paragraph strings.Builder
		cell      strings.Builder
		rowCells  []string
		tableDep  int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDep++
			case "tr":
				if tableDep > 0 {
					rowCells = rowCells[:0]
				}
			case "tc":
				if tableDep > 0 {
					cell.Reset()
				}
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					continue
				}
				if tableDep > 0 {
					cell.WriteString(text)
				} else {
					paragraph.WriteString(text)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDep > 0 {
					tableDep--
				}
			case "tc":
				if tableDep > 0 {
					if s := strings.TrimSpace(cell.String()); s != "" {
						rowCells = append(rowCells, s)
					}
				}
			case "tr":
				if tableDep > 0 && len(rowCells) > 0 {
					lines = append(lines, "[Tabela]: "+strings.Join(rowCells, " | "))
					rowCells = nil
				}
			case "p":
				if tableDep == 0 {
					if s := strings.TrimSpace(paragraph.String()); s != "" {
						lines = append(lines, s)
					}
					paragraph.Reset()
				} else {
					// Paragraph breaks inside a cell become spaces.
					cell.WriteString(" ")
				}
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
