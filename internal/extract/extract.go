// Package extract converts uploaded report bytes into raw text plus the mined
// key-value pairs. PDFs go through embedded text extraction; raster images go
// through tesseract. The file-type hint is the stored filename's extension.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ayuv-backend/internal/mining"
)

var (
	// ErrUnsupportedFileType is returned for extensions outside the PDF and
	// raster image families.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrExtraction wraps engine failures from the PDF reader or OCR binary.
	ErrExtraction = errors.New("extraction failed")
)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// Result is the extraction artifact: the full text plus mined parameters.
type Result struct {
	RawText       string
	KeyValuePairs map[string]string
}

// Config controls the OCR engine invocation.
type Config struct {
	TesseractBin  string
	TesseractLang string
}

// Extractor turns uploaded bytes into a Result. It is a pure function of the
// input bytes; nothing is persisted here.
type Extractor struct {
	cfg    Config
	runner Runner
}

// New constructs an Extractor with the default exec-based OCR runner.
func New(cfg Config) *Extractor {
	if cfg.TesseractBin == "" {
		cfg.TesseractBin = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

// NewWithRunner constructs an Extractor with a custom command runner.
func NewWithRunner(cfg Config, runner Runner) *Extractor {
	e := New(cfg)
	if runner != nil {
		e.runner = runner
	}
	return e
}

// Extract picks a strategy from the filename extension and returns the raw
// text with mined key-value pairs. Engine errors propagate as ErrExtraction;
// partial text is never returned as success.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = extractPDF(data)
	case isImageExt(ext):
		text, err = e.extractImage(ctx, data, ext)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		RawText:       text,
		KeyValuePairs: mining.Mine(text),
	}, nil
}

func isImageExt(ext string) bool {
	_, ok := imageExts[ext]
	return ok
}

// extractPDF pulls embedded text page by page, concatenated in page order.
func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf open: %v", ErrExtraction, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf text: %v", ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: pdf read: %v", ErrExtraction, err)
	}
	return buf.String(), nil
}

// extractImage stages the bytes to a temp file and runs tesseract over the
// full image with a fixed language.
func (e *Extractor) extractImage(ctx context.Context, data []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "ayuv-ocr-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: temp file: %v", ErrExtraction, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: write temp: %v", ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close temp: %v", ErrExtraction, err)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.TesseractBin, tmpPath, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrExtraction, err, truncate(string(errb), 512))
	}
	return string(out), nil
}
