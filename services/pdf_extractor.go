package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"pdf-chat-backend/internal/logger"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor turns an uploaded PDF into plain text the pipeline can
// ingest. The pure-Go reader runs first; when its output fails the quality
// gate, pdftotext (poppler-utils) gets a shot. Scanned image-only PDFs
// have no extractable text and come back as an error.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractionResult contains the result of PDF text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	Method         string
	QualityScore   float64
	ProcessingTime time.Duration
	WordCount      int
	CharacterCount int
}

// ExtractText extracts text from the PDF bytes, trying methods in order of
// preference and keeping the best result when none clears the quality bar.
func (e *PDFExtractor) ExtractText(ctx context.Context, content []byte) (*ExtractionResult, error) {
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return nil, fmt.Errorf("context deadline exceeded before extraction")
		}
	}

	methods := []struct {
		name    string
		extract func(context.Context, []byte) (*ExtractionResult, error)
	}{
		{"go-pdf", e.extractWithGoPDF},
		{"poppler", e.extractWithPoppler},
	}

	var lastErr error
	var bestResult *ExtractionResult

	for _, method := range methods {
		result, err := method.extract(ctx, content)
		if err != nil {
			logger.Debug("extraction method failed", "method", method.name, "error", err.Error())
			lastErr = err
			continue
		}

		result.Method = method.name
		result.ProcessingTime = time.Since(start)
		result.QualityScore = evaluateTextQuality(result.Text)

		logger.Debug("extraction method finished",
			"method", method.name,
			"chars", len(result.Text),
			"quality", result.QualityScore)

		if result.QualityScore >= 0.7 {
			return result, nil
		}

		if bestResult == nil || result.QualityScore > bestResult.QualityScore {
			bestResult = result
		}
	}

	// No method cleared the bar; fall back to the best usable result.
	if bestResult != nil && bestResult.QualityScore >= 0.3 {
		logger.Warn("using best available extraction", "method", bestResult.Method, "quality", bestResult.QualityScore)
		return bestResult, nil
	}

	return nil, fmt.Errorf("all extraction methods failed: %v", lastErr)
}

// extractWithGoPDF uses the pure-Go PDF library for extraction
func (e *PDFExtractor) extractWithGoPDF(ctx context.Context, content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract page text", "page", i, "error", err.Error())
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		textBuilder.WriteString(fmt.Sprintf("\n--- Page %d ---\n", i))
		textBuilder.WriteString(text)
	}

	extractedText := sanitize(textBuilder.String())
	if len(extractedText) == 0 {
		return nil, fmt.Errorf("no text extracted by go-pdf")
	}

	result := &ExtractionResult{
		Text:  extractedText,
		Pages: pages,
	}

	analyzeText(result)
	return result, nil
}

// extractWithPoppler uses poppler-utils (pdftotext) for extraction
func (e *PDFExtractor) extractWithPoppler(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available")
	}

	extractCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(extractCtx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v, stderr: %s", err, stderr.String())
	}

	extractedText := sanitize(stdout.String())
	if len(extractedText) == 0 {
		return nil, fmt.Errorf("no text extracted by pdftotext")
	}

	// pdftotext separates pages with form feeds
	pages := strings.Count(stdout.String(), "\f")
	if pages == 0 {
		pages = 1
	}

	result := &ExtractionResult{
		Text:  extractedText,
		Pages: pages,
	}

	analyzeText(result)
	return result, nil
}

// sanitize normalizes line endings and strips control characters that PDF
// text streams tend to leak, keeping tabs and newlines.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r < 0x20 || (r >= 0x7f && r <= 0x9f):
			// drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	blankRuns      = regexp.MustCompile(`\n+`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
)

// CleanText normalizes extracted text before chunking. Newline runs become
// a single newline, horizontal whitespace collapses to single spaces,
// control characters are stripped, and trimmed lines shorter than three
// characters (page numbers, stray bullets) are dropped.
func CleanText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = blankRuns.ReplaceAllString(text, "\n")
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = controlChars.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len([]rune(line)) >= 3 {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// evaluateTextQuality scores extracted text between 0 and 1 based on the
// ratio of readable characters and the presence of sentence structure.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0.0
	}
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r < 127:
			printable++
		case r > 127:
			printable++
		default:
			corrupted++
		}
	}

	total := len([]rune(text))
	alphanumericRatio := float64(alphanumeric) / float64(total)
	printableRatio := float64(printable) / float64(total)
	corruptedRatio := float64(corrupted) / float64(total)

	score := printableRatio * 0.4

	if alphanumericRatio >= 0.3 {
		score += 0.3
	} else {
		score += alphanumericRatio
	}

	score -= corruptedRatio * 2.0

	if len(text) > 100 {
		score += 0.1
	}

	if hasSentenceStructure(text) {
		score += 0.2
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+\p{Lu}`)

// hasSentenceStructure reports whether the text contains sentence endings
// followed by a capitalized word.
func hasSentenceStructure(text string) bool {
	return sentenceBoundary.MatchString(text)
}

// analyzeText fills the word and character counters.
func analyzeText(result *ExtractionResult) {
	result.WordCount = len(strings.Fields(result.Text))
	result.CharacterCount = len(result.Text)
}
