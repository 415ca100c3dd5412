// Package page provides the interaction surface page objects build
// on: every element operation locates its target through the wait
// engine and runs under the transient-error retry policy, so callers
// get resilient clicks and keystrokes without writing polling loops.
package page

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"

	"github.com/entrhq/gauntlet/pkg/logging"
	"github.com/entrhq/gauntlet/pkg/retry"
	"github.com/entrhq/gauntlet/pkg/session"
	"github.com/entrhq/gauntlet/pkg/wait"
)

// Page binds one session to the resilient interaction machinery.
// RetryPolicy and WaitSpec are plain fields so a call site can adjust
// them on its own copy before issuing interactions.
type Page struct {
	RetryPolicy retry.Policy
	WaitSpec    wait.Spec

	sess     *session.Session
	notifier session.Notifier
	logger   logrus.FieldLogger
}

// New returns a Page for the session. The default wait spec uses the
// session's explicit wait; the default retry policy is retry.Default.
// A nil notifier drops failure events; a nil logger discards output.
func New(sess *session.Session, notifier session.Notifier, logger logrus.FieldLogger) *Page {
	if notifier == nil {
		notifier = session.NopNotifier{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Page{
		RetryPolicy: retry.Default(),
		WaitSpec:    wait.Spec{Timeout: sess.ExplicitWait},
		sess:        sess,
		notifier:    notifier,
		logger:      logger.WithField("worker", sess.Worker),
	}
}

// Open navigates to url and blocks until the document is fully loaded.
func (p *Page) Open(url string) error {
	wd, err := p.sess.Driver()
	if err != nil {
		return err
	}

	p.logger.WithField("url", url).Info("navigating")
	if err := wd.Get(url); err != nil {
		return p.fail("open", 1, err)
	}
	return p.waitReady(wd)
}

// waitReady polls document.readyState until the page settled.
func (p *Page) waitReady(wd selenium.WebDriver) error {
	return wait.True(func() (bool, error) {
		state, err := wd.ExecuteScript("return document.readyState", nil)
		if err != nil {
			return false, err
		}
		return state == "complete", nil
	}, p.WaitSpec)
}

// Title returns the current page title.
func (p *Page) Title() (string, error) {
	wd, err := p.sess.Driver()
	if err != nil {
		return "", err
	}
	return wd.Title()
}

// URL returns the current page URL.
func (p *Page) URL() (string, error) {
	wd, err := p.sess.Driver()
	if err != nil {
		return "", err
	}
	return wd.CurrentURL()
}

// WaitVisible blocks until the element is displayed and returns it.
func (p *Page) WaitVisible(by, value string) (selenium.WebElement, error) {
	wd, err := p.sess.Driver()
	if err != nil {
		return nil, err
	}
	return wait.Visible(wd, by, value, p.WaitSpec)
}

// WaitClickable blocks until the element is displayed and enabled.
func (p *Page) WaitClickable(by, value string) (selenium.WebElement, error) {
	wd, err := p.sess.Driver()
	if err != nil {
		return nil, err
	}
	return wait.Clickable(wd, by, value, p.WaitSpec)
}

// Click waits for the element to be clickable and clicks it,
// retrying transient failures.
func (p *Page) Click(by, value string) error {
	p.logger.WithField("locator", locator(by, value)).Info("click")
	_, err := do(p, "click", func() (struct{}, error) {
		el, err := p.WaitClickable(by, value)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, el.Click()
	})
	return err
}

// Type waits for the element to be visible and sends text to it.
func (p *Page) Type(by, value, text string) error {
	p.logger.WithField("locator", locator(by, value)).Info("type")
	_, err := do(p, "type", func() (struct{}, error) {
		el, err := p.WaitVisible(by, value)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, el.SendKeys(text)
	})
	return err
}

// ClearAndType clears the element before sending text.
func (p *Page) ClearAndType(by, value, text string) error {
	p.logger.WithField("locator", locator(by, value)).Info("clear and type")
	_, err := do(p, "clear and type", func() (struct{}, error) {
		el, err := p.WaitVisible(by, value)
		if err != nil {
			return struct{}{}, err
		}
		if err := el.Clear(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, el.SendKeys(text)
	})
	return err
}

// Text returns the visible text of the element.
func (p *Page) Text(by, value string) (string, error) {
	return do(p, "get text", func() (string, error) {
		el, err := p.WaitVisible(by, value)
		if err != nil {
			return "", err
		}
		return el.Text()
	})
}

// Attribute returns the named attribute of the element.
func (p *Page) Attribute(by, value, name string) (string, error) {
	return do(p, "get attribute", func() (string, error) {
		el, err := p.WaitVisible(by, value)
		if err != nil {
			return "", err
		}
		return el.GetAttribute(name)
	})
}

// ScrollIntoView scrolls the element to the viewport center.
func (p *Page) ScrollIntoView(by, value string) error {
	_, err := do(p, "scroll into view", func() (struct{}, error) {
		wd, el, err := p.visibleElement(by, value)
		if err != nil {
			return struct{}{}, err
		}
		_, err = wd.ExecuteScript(
			"arguments[0].scrollIntoView({block:'center',inline:'center'});",
			[]interface{}{el},
		)
		return struct{}{}, err
	})
	return err
}

// JSClick clicks through JavaScript, for elements a native click can
// not reach.
func (p *Page) JSClick(by, value string) error {
	p.logger.WithField("locator", locator(by, value)).Info("js click")
	_, err := do(p, "js click", func() (struct{}, error) {
		wd, el, err := p.visibleElement(by, value)
		if err != nil {
			return struct{}{}, err
		}
		_, err = wd.ExecuteScript("arguments[0].click();", []interface{}{el})
		return struct{}{}, err
	})
	return err
}

func (p *Page) visibleElement(by, value string) (selenium.WebDriver, selenium.WebElement, error) {
	wd, err := p.sess.Driver()
	if err != nil {
		return nil, nil, err
	}
	el, err := wait.Visible(wd, by, value, p.WaitSpec)
	return wd, el, err
}

// do runs action under the page's retry policy. Terminal failures are
// reported to the notifier with the attempt count annotated and a
// session snapshot attached; the caller gets the original error.
func do[T any](p *Page, name string, action func() (T, error)) (T, error) {
	attempts := 0
	policy := p.RetryPolicy
	policy.OnAttempt = func(attempt int, err error) {
		attempts = attempt
		if err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"action":  name,
				"attempt": attempt,
			}).Warn("interaction attempt failed")
		}
	}

	v, err := retry.Do(policy, action)
	if err != nil {
		return v, p.fail(name, attempts, err)
	}
	return v, nil
}

// fail reports the terminal failure to the notifier and hands the
// original error back to the caller.
func (p *Page) fail(name string, attempts int, err error) error {
	annotated := fmt.Errorf("%s failed after %d attempt(s): %w", name, attempts, err)
	p.notifier.OnActionFailed(p.sess.Worker, annotated, p.sess.Snapshot())
	return err
}

func locator(by, value string) string {
	return fmt.Sprintf("%s=%q", by, value)
}
