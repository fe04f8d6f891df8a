// Package browser drives a headless browser session to fully render profile
// pages whose stands section is loaded dynamically behind a "load more
// issues" control.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"cardscraper/pkg/config"
	errs "cardscraper/pkg/errors"
	"cardscraper/pkg/logger"
	"cardscraper/pkg/report"
)

// visibleProbe checks whether the load-more control is currently rendered
// as visible. Evaluated in the page, so it sees the post-click state.
const visibleProbe = `(() => {
	const el = document.querySelector('` + report.LoadMoreProbe + `');
	if (!el) return false;
	const style = window.getComputedStyle(el);
	return style.display !== 'none' && style.visibility !== 'hidden' && el.offsetParent !== null;
})()`

const presenceProbe = `document.querySelector('` + report.StandsSectionProbe + `') !== null`

// RenderResult is the outcome of rendering one profile page
type RenderResult struct {
	// HTML is the full document after pagination is exhausted; empty when
	// the stands section is absent
	HTML string
	// Found reports whether the stands section exists on the page
	Found bool
	// Clicks is how many times the load-more control was activated
	Clicks int
	// Truncated is set when the click cap was hit before the control
	// stopped rendering as visible; HTML then holds a partial expansion
	Truncated bool
}

// Loader renders profile pages in an isolated browser session per entity.
// Sessions are deliberately not reused across entities.
type Loader struct {
	cfg       config.BrowserConfig
	userAgent string
	logger    logger.Logger
}

// NewLoader creates a page loader
func NewLoader(cfg config.BrowserConfig, userAgent string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Loader{cfg: cfg, userAgent: userAgent, logger: log}
}

// RenderStands navigates to a profile page, probes for the stands section,
// and if present exhausts the load-more pagination before returning the
// rendered HTML. The pagination loop is capped at MaxLoadMore clicks so a
// control that never stops rendering as visible cannot hang the run.
func (l *Loader) RenderStands(ctx context.Context, url string) (*RenderResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.UserAgent(l.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, l.cfg.PageTimeout)
	defer cancelTimeout()

	var found bool
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(presenceProbe, &found),
	)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBrowser, fmt.Sprintf("navigation failed: %v", err), 0)
	}

	result := &RenderResult{Found: found}
	if !found {
		return result, nil
	}

	probe := func() (bool, error) {
		var visible bool
		if err := chromedp.Run(browserCtx, chromedp.Evaluate(visibleProbe, &visible)); err != nil {
			return false, errs.New(errs.ErrorTypeBrowser, fmt.Sprintf("visibility probe failed: %v", err), 0)
		}
		return visible, nil
	}
	click := func() bool {
		err := chromedp.Run(browserCtx,
			chromedp.Click(report.LoadMoreProbe, chromedp.ByQuery),
			chromedp.Sleep(l.cfg.SettleDelay),
		)
		if err != nil {
			// The control can detach between the probe and the click once
			// the last batch has loaded; treat it as end of pagination.
			l.logger.WarnWithFields("load more click failed, stopping pagination", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			return false
		}
		l.logger.DebugWithFields("clicked load more", map[string]interface{}{"url": url})
		return true
	}

	clicks, truncated, err := expandAll(probe, click, l.cfg.MaxLoadMore)
	if err != nil {
		return nil, err
	}
	result.Clicks = clicks
	result.Truncated = truncated
	if truncated {
		l.logger.WarnWithFields("load more click cap reached, returning partial expansion", map[string]interface{}{
			"url":    url,
			"clicks": result.Clicks,
		})
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, errs.New(errs.ErrorTypeBrowser, fmt.Sprintf("failed to capture page content: %v", err), 0)
	}
	result.HTML = html

	return result, nil
}

// expandAll clicks the load-more control until it stops rendering as
// visible or the click cap is reached. click returns false when the
// control detached, which ends pagination normally. When the cap is hit
// the control is probed once more: if it disappeared on the final allowed
// click the expansion is complete, not truncated.
func expandAll(probe func() (bool, error), click func() bool, maxClicks int) (clicks int, truncated bool, err error) {
	for clicks < maxClicks {
		visible, err := probe()
		if err != nil {
			return clicks, false, err
		}
		if !visible {
			return clicks, false, nil
		}
		if !click() {
			return clicks, false, nil
		}
		clicks++
	}

	visible, err := probe()
	if err != nil {
		return clicks, false, err
	}
	return clicks, visible, nil
}
