// Package extract turns uploaded resume and job description files into plain
// text with meaningful line breaks.
package extract

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/resumatch/internal/domain/types"
)

// Format is a normalized document format.
type Format string

// Known formats.
const (
	FormatText    Format = "text"
	FormatHTML    Format = "html"
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatUnknown Format = "unknown"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var formatsByExt = map[string]Format{ //nolint:gochecknoglobals // read-only lookup table
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".xhtml":    FormatHTML,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
}

var formatsByMIME = map[string]Format{ //nolint:gochecknoglobals // read-only lookup table
	"text/plain":            FormatText,
	"text/markdown":         FormatText,
	"text/x-markdown":       FormatText,
	"text/html":             FormatHTML,
	"application/xhtml+xml": FormatHTML,
	"application/pdf":       FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
}

// Detect resolves hint to a format. hint may be a file name, an extension or a
// MIME type; when it is empty or opaque the content is sniffed.
func Detect(data []byte, hint string) Format {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint != "" {
		if strings.Contains(hint, "/") {
			if mt, _, err := mime.ParseMediaType(hint); err == nil {
				if f, ok := formatsByMIME[mt]; ok {
					return f
				}
				if mt != "application/octet-stream" {
					return FormatUnknown
				}
			}
		} else {
			ext := hint
			if !strings.HasPrefix(ext, ".") {
				ext = filepath.Ext(hint)
				if ext == "" {
					ext = "." + hint
				}
			}
			if f, ok := formatsByExt[ext]; ok {
				return f
			}
			return FormatUnknown
		}
	}

	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return FormatUnknown
	}
	if f, ok := formatsByMIME[mt]; ok {
		return f
	}
	return FormatUnknown
}

// Text extracts plain text from data. Unknown formats and documents that
// cannot be read fail with types.ErrUnsupportedFormat.
func Text(data []byte, hint string) (string, error) {
	switch Detect(data, hint) {
	case FormatText:
		return plainText(data)
	case FormatHTML:
		return htmlText(data)
	case FormatPDF:
		return pdfText(data)
	case FormatDOCX:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, hint)
	}
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", types.ErrUnsupportedFormat)
	}
	return string(data), nil
}

// blockElements end a line of extracted text.
var blockElements = map[string]bool{ //nolint:gochecknoglobals // read-only lookup table
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true,
	"tr": true, "ul": true,
}

// htmlText renders the document body as text, one line per block element.
func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %w", types.ErrUnsupportedFormat, err)
	}
	doc.Find("script, style, noscript, template, head").Remove()

	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			if name == "#text" {
				b.WriteString(c.Text())
				return
			}
			block := blockElements[name]
			if block {
				b.WriteByte('\n')
			}
			walk(c)
			if block {
				b.WriteByte('\n')
			}
		})
	}
	walk(doc.Selection)

	return cleanLines(b.String()), nil
}

// cleanLines collapses runs of whitespace inside lines and drops blank lines.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
