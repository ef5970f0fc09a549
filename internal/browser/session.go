// Package browser exposes one Chrome page session as the surface the test
// runner acts on: navigation, pointer/keyboard input, element inspection
// and screenshots. The viewport is pinned to 1280x800 at device pixel
// ratio 1 so the oracle's screenshot pixel coordinates map 1:1 to CSS
// pixels for the whole run.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	ViewportWidth  = 1280
	ViewportHeight = 800
)

// ErrNoElement is returned by ElementAtPoint when nothing renders at the
// queried coordinates.
var ErrNoElement = errors.New("no element at point")

// PointInfo describes the element found under a viewport point.
type PointInfo struct {
	Text  string
	Label string
}

// Surface is the browser capability consumed by the locator and executor.
type Surface interface {
	Visit(ctx context.Context, url string) (title string, err error)
	Screenshot(ctx context.Context) ([]byte, error)
	ElementAtPoint(ctx context.Context, x, y int) (PointInfo, error)
	ClickAt(ctx context.Context, x, y int) error
	ClickSelector(ctx context.Context, selector string, timeout time.Duration) error
	ElementVisible(ctx context.Context, selector string, timeout time.Duration) error
	TextContent(ctx context.Context, selector string, timeout time.Duration) (string, error)
	TypeText(ctx context.Context, text string) error
	ScrollToSelector(ctx context.Context, selector string, timeout time.Duration) error
	ScrollBy(ctx context.Context, dx, dy int) error
	Close() error
}

// Factory opens a fresh session. Each test run owns exactly one.
type Factory func(ctx context.Context) (Surface, error)

// Options configures a session.
type Options struct {
	Headless bool
	// ProfileDir is a Chrome profile directory for authenticated sessions.
	ProfileDir string
	// TypeDelay is the pause between dispatched keystrokes.
	TypeDelay time.Duration
	Logger    *slog.Logger
}

// Session is a rod-backed Surface owning one browser and one page.
type Session struct {
	browser   *rod.Browser
	page      *rod.Page
	typeDelay time.Duration
	log       *slog.Logger
}

// NewSession launches a browser and opens a blank page with the pinned
// viewport.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TypeDelay <= 0 {
		opts.TypeDelay = 30 * time.Millisecond
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             ViewportWidth,
		Height:            ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		page.Close()
		b.Close()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	return &Session{
		browser:   b,
		page:      page,
		typeDelay: opts.TypeDelay,
		log:       opts.Logger,
	}, nil
}

// Visit navigates to the URL, waits for load plus a bounded request-idle
// window, and returns the page title.
func (s *Session) Visit(ctx context.Context, url string) (string, error) {
	p := s.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}

	// Bounded so persistent connections (websockets, polling) cannot hang
	// the run.
	p.Timeout(5 * time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	info, err := p.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.Title, nil
}

// Screenshot captures the current viewport (not the full page) as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

// ElementAtPoint reports the visible text and accessible label of the
// element rendered at (x, y) in viewport pixels.
func (s *Session) ElementAtPoint(ctx context.Context, x, y int) (PointInfo, error) {
	res, err := s.page.Context(ctx).Eval(`(x, y) => {
		const el = document.elementFromPoint(x, y);
		if (!el) return null;
		return {
			text: (el.innerText || el.value || '').trim(),
			label: el.getAttribute('aria-label') || ''
		};
	}`, x, y)
	if err != nil {
		return PointInfo{}, fmt.Errorf("element at point (%d,%d): %w", x, y, err)
	}
	if res.Value.Nil() {
		return PointInfo{}, fmt.Errorf("point (%d,%d): %w", x, y, ErrNoElement)
	}
	return PointInfo{
		Text:  res.Value.Get("text").Str(),
		Label: res.Value.Get("label").Str(),
	}, nil
}

// ClickAt moves the mouse to (x, y) and clicks.
func (s *Session) ClickAt(ctx context.Context, x, y int) error {
	m := s.page.Context(ctx).Mouse
	if err := m.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return fmt.Errorf("move to (%d,%d): %w", x, y, err)
	}
	if err := m.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click at (%d,%d): %w", x, y, err)
	}
	return nil
}

// ClickSelector clicks the element matching the selector, bounded by
// timeout.
func (s *Session) ClickSelector(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click selector %q: %w", selector, err)
	}
	return nil
}

// ElementVisible resolves the selector and checks it is visible.
func (s *Session) ElementVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}
	visible, err := el.Visible()
	if err != nil {
		return fmt.Errorf("visibility of %q: %w", selector, err)
	}
	if !visible {
		return fmt.Errorf("element %q is not visible", selector)
	}
	return nil
}

// TextContent returns the rendered text of the element matching the
// selector.
func (s *Session) TextContent(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return "", fmt.Errorf("selector %q: %w", selector, err)
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return text, nil
}

// TypeText dispatches the text as individual keystrokes into the focused
// element, so live input formatting and validation fire as they would for
// a real user. No value-assignment shortcut.
func (s *Session) TypeText(ctx context.Context, text string) error {
	k := s.page.Context(ctx).Keyboard
	for _, r := range text {
		if err := k.Type(input.Key(r)); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		time.Sleep(s.typeDelay)
	}
	return nil
}

// ScrollToSelector scrolls the element matching the selector into view.
func (s *Session) ScrollToSelector(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll to %q: %w", selector, err)
	}
	return nil
}

// ScrollBy scrolls the page by the given pixel offsets.
func (s *Session) ScrollBy(ctx context.Context, dx, dy int) error {
	if err := s.page.Context(ctx).Mouse.Scroll(float64(dx), float64(dy), 1); err != nil {
		return fmt.Errorf("scroll by (%d,%d): %w", dx, dy, err)
	}
	return nil
}

// Close releases the page and the browser.
func (s *Session) Close() error {
	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			firstErr = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
