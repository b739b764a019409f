package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// field reads one optional value from a listing item.
type field[T any] func(item *goquery.Selection) (T, bool)

// firstOf tries each field in order and returns the first value found.
func firstOf[T any](fields ...field[T]) field[T] {
	return func(item *goquery.Selection) (T, bool) {
		for _, f := range fields {
			if v, ok := f(item); ok {
				return v, true
			}
		}
		var zero T
		return zero, false
	}
}

// valueOr returns the value of f, or def when f finds nothing.
func valueOr[T any](f field[T], item *goquery.Selection, def T) T {
	if v, ok := f(item); ok {
		return v
	}
	return def
}

func textOf(selector string) field[string] {
	return func(item *goquery.Selection) (string, bool) {
		s := item.Find(selector).First()
		if s.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(s.Text()), true
	}
}

func attrOf(selector, name string) field[string] {
	return func(item *goquery.Selection) (string, bool) {
		return item.Find(selector).First().Attr(name)
	}
}

func present(selector string) field[bool] {
	return func(item *goquery.Selection) (bool, bool) {
		return true, item.Find(selector).Length() > 0
	}
}

// parentTextOf reads the text of the element wrapping an icon, which is where
// the listing puts its counters.
func parentTextOf(container, icon string) field[string] {
	return func(item *goquery.Selection) (string, bool) {
		s := item.Find(container).First().Find(icon).First()
		if s.Length() == 0 {
			return "", false
		}
		return s.Parent().Text(), true
	}
}

func nonEmpty(f field[string]) field[string] {
	return func(item *goquery.Selection) (string, bool) {
		v, ok := f(item)
		return v, ok && v != ""
	}
}
