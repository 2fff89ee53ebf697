package export

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"namesmith/internal/domain"
)

// ErrNoBrowser is returned when no headless browser binary can be found.
var ErrNoBrowser = errors.New("rod browser dependency not found")

// Renderer turns candidates into a binary document.
type Renderer interface {
	RenderPDF(ctx context.Context, candidates []domain.Candidate) ([]byte, error)
}

// PDFRenderer prints the text document through a headless browser.
type PDFRenderer struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewPDFRenderer creates a renderer. Each call launches its own browser.
func NewPDFRenderer(timeout time.Duration, logger logrus.FieldLogger) *PDFRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFRenderer{
		timeout: timeout,
		log:     logger.WithField("component", "pdf_renderer"),
	}
}

// DocumentHTML wraps the text export in a minimal printable page.
func DocumentHTML(candidates []domain.Candidate) string {
	body := html.EscapeString(string(exportDocument(candidates)))
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Business name candidates</title>` +
		`<style>body{font-family:monospace;font-size:12px;margin:32px;}pre{white-space:pre-wrap;}</style>` +
		`</head><body><pre>` + body + `</pre></body></html>`
}

// RenderPDF renders candidates to PDF bytes.
func (r *PDFRenderer) RenderPDF(ctx context.Context, candidates []domain.Candidate) (out []byte, err error) {
	log := r.log.WithField("candidates", len(candidates))

	path, exists := launcher.LookPath()
	if !exists {
		log.Warn("Cannot find browser executable for rod")
		return nil, ErrNoBrowser
	}
	u, err := launcher.New().Bin(path).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
			if err == nil {
				err = fmt.Errorf("error closing browser: %w", closeErr)
			}
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	pageCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err := page.SetDocumentContent(DocumentHTML(candidates)); err != nil {
		return nil, fmt.Errorf("failed to set document content: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("PDF rendering timed out")
		}
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	out, err = io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf stream: %w", err)
	}

	log.WithField("bytes", len(out)).Info("PDF rendered")
	return out, nil
}
