// Package document turns uploaded files into plain-text chunks ready for
// embedding. It supports PDF and DOCX inputs and a recursive character
// splitter that keeps overlap between consecutive chunks.
package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file extensions other than .pdf and .docx.
var ErrUnsupportedType = errors.New("unsupported file type")

// Section is a contiguous piece of extracted text. Page is 1-based for PDF
// inputs and zero for formats without page structure.
type Section struct {
	Text string
	Page int
}

// Load extracts text from the file at path, dispatching on its extension.
func Load(path string) ([]Section, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
}

func loadPDF(path string) ([]Section, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var sections []Section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely
			continue
		}
		text = normalizeText(text)
		if text == "" {
			continue
		}
		sections = append(sections, Section{Text: text, Page: i})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return sections, nil
}

// loadDOCX reads the main document part of a DOCX archive. A DOCX file is a
// zip containing word/document.xml with the body text in w:t elements.
func loadDOCX(path string) ([]Section, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	var docXML io.ReadCloser
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("read docx document part: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("invalid docx: missing word/document.xml")
	}
	defer docXML.Close()

	text, err := extractDOCXText(docXML)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	text = normalizeText(text)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return []Section{{Text: text}}, nil
}

// extractDOCXText walks the WordprocessingML token stream collecting run text.
// Paragraph ends and explicit breaks become whitespace so words from adjacent
// paragraphs do not fuse.
func extractDOCXText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "tab":
				buf.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}

// normalizeText strips NUL bytes and invalid UTF-8 and collapses runs of
// whitespace within each line while preserving paragraph breaks for the
// splitter.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
