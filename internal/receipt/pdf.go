package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Paper is a printable page size in inches.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

var (
	// Paper80mm is thermal roll paper. The height is generous and
	// PreferCSSPageSize lets the "80mm auto" page rule trim it.
	Paper80mm = Paper{Name: "80mm", Width: 3.15, Height: 11}
	// PaperA4 is used for the sales report.
	PaperA4 = Paper{Name: "a4", Width: 8.27, Height: 11.69}
)

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte, paper Paper) ([]byte, error)
}

// ErrPDFUnavailable is returned when no renderer is configured.
var ErrPDFUnavailable = errors.New("receipt: pdf rendering unavailable")

var chromeCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
}

// DetectChrome returns the first Chrome or Chromium binary found on the
// usual Linux paths, or "" to let chromedp look it up.
func DetectChrome() string {
	for _, p := range chromeCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ChromeRenderer prints HTML through a headless Chrome. Each call starts a
// fresh browser so a crashed render never poisons the next one.
type ChromeRenderer struct {
	ExecPath string
	Timeout  time.Duration
}

// RenderPDF loads html into a blank page and prints it.
func (c ChromeRenderer) RenderPDF(ctx context.Context, html []byte, paper Paper) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox, chromedp.DisableGPU)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paper.Width).
				WithPaperHeight(paper.Height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print %s pdf: %w", paper.Name, err)
	}
	return pdf, nil
}
