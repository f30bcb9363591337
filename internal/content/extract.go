package content

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported resume format")
	ErrNoText            = errors.New("no text in document")

	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// Extract returns the plain text of a resume document. The format is taken
// from the extension of name.
func Extract(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".md", "":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid utf-8", ErrUnsupportedFormat)
		}
		text = string(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(name))
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			zap.S().Named("content").Debugw("skipping pdf page", "page", i, "error", err)
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			zap.S().Named("content").Debugw("skipping pdf page", "page", i, "error", err)
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			zap.S().Named("content").Debugw("skipping pdf page", "page", i, "error", err)
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

func docxXMLToText(raw string) string {
	text := paragraphEnd.ReplaceAllString(raw, "\n")
	text = xmlTag.ReplaceAllString(text, "")
	text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(text)
	return blankLines.ReplaceAllString(text, "\n\n")
}
