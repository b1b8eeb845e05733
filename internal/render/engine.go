package render

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrEmptyHTML marks a render request with no content. Both render
// paths short-circuit on it before a browser session is acquired.
var ErrEmptyHTML = errors.New("render: empty html document")

const (
	// DefaultWidth and DefaultHeight are the device panel resolution.
	DefaultWidth  = 800
	DefaultHeight = 480

	defaultTimeout = 30 * time.Second
)

// Engine turns an HTML document into a full-viewport PNG screenshot
// through a headless browser. With RemoteURL set it attaches to an
// already running browser over the DevTools protocol; otherwise it
// launches a local headless process per session.
type Engine struct {
	RemoteURL string
	Width     int
	Height    int
	Timeout   time.Duration
}

func NewEngine(remoteURL string) *Engine {
	return &Engine{
		RemoteURL: remoteURL,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Timeout:   defaultTimeout,
	}
}

// Session is a scoped browser acquisition. Close releases the tab and
// the underlying allocator on every path; callers defer it immediately
// after NewSession succeeds.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	engine  *Engine
}

// NewSession acquires a browser tab. The session inherits cancellation
// from ctx, so an interactive caller disconnecting mid-render tears
// the browser down with it.
func (e *Engine) NewSession(ctx context.Context) (*Session, error) {
	var cancels []context.CancelFunc

	allocCtx := ctx
	if e.RemoteURL != "" {
		var cancel context.CancelFunc
		allocCtx, cancel = chromedp.NewRemoteAllocator(ctx, e.RemoteURL)
		cancels = append(cancels, cancel)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.WindowSize(e.width(), e.height()),
			chromedp.Flag("disable-web-security", true),
		)
		var cancel context.CancelFunc
		allocCtx, cancel = chromedp.NewExecAllocator(ctx, opts...)
		cancels = append(cancels, cancel)
	}

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	cancels = append(cancels, cancel)

	// Surface launch failures here instead of on the first render.
	if err := chromedp.Run(browserCtx); err != nil {
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
		return nil, err
	}
	return &Session{ctx: browserCtx, cancels: cancels, engine: e}, nil
}

// Close releases the browser session. Safe to call more than once.
func (s *Session) Close() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	s.cancels = nil
}

// Render sets the document content and captures a viewport screenshot
// at the fixed device resolution. Empty input short-circuits without
// touching the browser.
func (s *Session) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	timeout := s.engine.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	// Propagate the caller's cancellation (e.g. preview client
	// disconnect) into the browser context.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tctx.Done():
		}
	}()

	var buf []byte
	err := chromedp.Run(tctx,
		emulation.SetDeviceMetricsOverride(int64(s.engine.width()), int64(s.engine.height()), 1, false),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		// Scrollbars bleed into the capture otherwise.
		chromedp.Evaluate(
			`document.documentElement.style.overflow = "hidden"; document.body.style.overflow = "hidden";`,
			nil,
		),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// RenderOnce is the session-per-call path used by the background
// render cycle: acquire, render, release, with release guaranteed on
// every exit.
func (e *Engine) RenderOnce(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	session, err := e.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	start := time.Now()
	raster, err := session.Render(ctx, html)
	if err != nil {
		return nil, err
	}
	log.Debug().Dur("render_time", time.Since(start)).Msg("captured screenshot")
	return raster, nil
}

func (e *Engine) width() int {
	if e.Width > 0 {
		return e.Width
	}
	return DefaultWidth
}

func (e *Engine) height() int {
	if e.Height > 0 {
		return e.Height
	}
	return DefaultHeight
}
