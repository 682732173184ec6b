package browser

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
)

// domStableWindow is how long the DOM must stop mutating before a settle
// wait is considered complete.
const domStableWindow = 300 * time.Millisecond

// Page wraps a rod page with the primitive operations the row processor
// needs. Every operation takes an explicit deadline and returns an error
// instead of panicking.
type Page struct {
	page *rod.Page
}

// Navigate loads the given URL.
func (p *Page) Navigate(url string, timeout time.Duration) error {
	if err := p.page.Timeout(timeout).Navigate(url); err != nil {
		return eris.Wrapf(err, "page: navigate %s", url)
	}
	return nil
}

// WaitSettle blocks until background activity has quieted down, the settle
// strategy for single-page apps that keep fetching after load.
func (p *Page) WaitSettle(timeout time.Duration) error {
	if err := p.page.Timeout(timeout).WaitDOMStable(domStableWindow, 0.1); err != nil {
		return eris.Wrap(err, "page: settle wait")
	}
	return nil
}

// WaitLoad blocks until the page load event fires.
func (p *Page) WaitLoad(timeout time.Duration) error {
	if err := p.page.Timeout(timeout).WaitLoad(); err != nil {
		return eris.Wrap(err, "page: load wait")
	}
	return nil
}

// WaitElement blocks until an element matching selector appears.
func (p *Page) WaitElement(selector string, timeout time.Duration) error {
	if _, err := p.page.Timeout(timeout).Element(selector); err != nil {
		return eris.Wrapf(err, "page: wait element %s", selector)
	}
	return nil
}

// Fill replaces the content of the element matching selector with value.
func (p *Page) Fill(selector, value string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return eris.Wrapf(err, "page: find %s", selector)
	}
	// Clear whatever is already there; a fresh page usually has nothing.
	_ = el.SelectAllText()
	if err := el.Input(value); err != nil {
		return eris.Wrapf(err, "page: input into %s", selector)
	}
	return nil
}

// Click clicks the element matching selector.
func (p *Page) Click(selector string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return eris.Wrapf(err, "page: find %s", selector)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return eris.Wrapf(err, "page: click %s", selector)
	}
	return nil
}

// Focus focuses the element matching selector.
func (p *Page) Focus(selector string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return eris.Wrapf(err, "page: find %s", selector)
	}
	if err := el.Focus(); err != nil {
		return eris.Wrapf(err, "page: focus %s", selector)
	}
	return nil
}

// SelectAll selects the text content of the element matching selector, so a
// following TypeText replaces it.
func (p *Page) SelectAll(selector string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return eris.Wrapf(err, "page: find %s", selector)
	}
	if err := el.SelectAllText(); err != nil {
		return eris.Wrapf(err, "page: select text of %s", selector)
	}
	return nil
}

// TypeText inserts text at the current focus point.
func (p *Page) TypeText(value string) error {
	if err := p.page.InsertText(value); err != nil {
		return eris.Wrap(err, "page: insert text")
	}
	return nil
}

// PressEnter sends an Enter keystroke to the page.
func (p *Page) PressEnter() error {
	if err := p.page.Keyboard.Press(input.Enter); err != nil {
		return eris.Wrap(err, "page: press enter")
	}
	return nil
}

// ElementText returns the visible text of the element matching selector.
func (p *Page) ElementText(selector string, timeout time.Duration) (string, error) {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return "", eris.Wrapf(err, "page: find %s", selector)
	}
	text, err := el.Text()
	if err != nil {
		return "", eris.Wrapf(err, "page: read text of %s", selector)
	}
	return text, nil
}

// WaitAny blocks until the first of the given selectors appears and returns
// the selector that matched.
func (p *Page) WaitAny(timeout time.Duration, selectors ...string) (string, error) {
	var matched string
	race := p.page.Timeout(timeout).Race()
	for _, sel := range selectors {
		race = race.Element(sel).MustHandle(func(_ *rod.Element) { matched = sel })
	}
	if _, err := race.Do(); err != nil {
		return "", eris.Wrap(err, "page: race wait")
	}
	return matched, nil
}
