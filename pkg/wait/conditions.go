package wait

import (
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/entrhq/gauntlet/pkg/retry"
)

// Visible polls until the element located by (by, value) is present
// and displayed, then returns it.
func Visible(wd selenium.WebDriver, by, value string, spec Spec) (selenium.WebElement, error) {
	return Until(elementInState(wd, by, value, func(el selenium.WebElement) (bool, error) {
		return el.IsDisplayed()
	}), withTransientIgnore(spec))
}

// Clickable polls until the element located by (by, value) is
// displayed and enabled, then returns it.
func Clickable(wd selenium.WebDriver, by, value string, spec Spec) (selenium.WebElement, error) {
	return Until(elementInState(wd, by, value, func(el selenium.WebElement) (bool, error) {
		shown, err := el.IsDisplayed()
		if err != nil || !shown {
			return shown, err
		}
		return el.IsEnabled()
	}), withTransientIgnore(spec))
}

// elementInState adapts an element lookup plus a state check into a
// poll predicate. Both canonical conditions go through here; they
// differ only in the state check.
func elementInState(wd selenium.WebDriver, by, value string, state func(selenium.WebElement) (bool, error)) func() (selenium.WebElement, error) {
	return func() (selenium.WebElement, error) {
		el, err := wd.FindElement(by, value)
		if err != nil {
			return nil, err
		}
		ok, err := state(el)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("element %s=%q: %w", by, value, ErrConditionNotMet)
		}
		return el, nil
	}
}

// withTransientIgnore fills in the standard ignored-error set when the
// caller did not configure one: every transient interaction error
// counts as "not satisfied yet" while waiting.
func withTransientIgnore(spec Spec) Spec {
	if spec.Ignore == nil {
		spec.Ignore = retry.IsTransient
	}
	return spec
}
