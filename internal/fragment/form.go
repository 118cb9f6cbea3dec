package fragment

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const fieldSelector = "input, select, textarea"

// Field is one name/value pair submitted by a form
type Field struct {
	Name  string
	Value string
}

// FormFields collects the fields a browser would submit for form, in
// document order: named, enabled controls; checkboxes and radios only when
// checked; selected options of selects; textarea content. Buttons, file and
// image inputs are never included.
func FormFields(form *goquery.Selection) []Field {
	var fields []Field

	form.Find(fieldSelector).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		name, _ := sel.Attr("name")
		if name == "" || isDisabled(sel) {
			return
		}

		switch node.DataAtom {
		case atom.Input:
			switch inputType(sel) {
			case "submit", "button", "reset", "image", "file":
				return
			case "checkbox", "radio":
				if _, checked := sel.Attr("checked"); !checked {
					return
				}
				value, ok := sel.Attr("value")
				if !ok {
					value = "on"
				}
				fields = append(fields, Field{Name: name, Value: value})
			default:
				value, _ := sel.Attr("value")
				fields = append(fields, Field{Name: name, Value: value})
			}

		case atom.Select:
			for _, value := range selectedValues(sel) {
				fields = append(fields, Field{Name: name, Value: value})
			}

		case atom.Textarea:
			fields = append(fields, Field{Name: name, Value: sel.Text()})
		}
	})

	return fields
}

// EncodeForm serializes form the way URLSearchParams does, keeping field order.
func EncodeForm(form *goquery.Selection) string {
	return EncodeFields(FormFields(form))
}

// EncodeFields joins fields as application/x-www-form-urlencoded.
func EncodeFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, formEscape(f.Name)+"="+formEscape(f.Value))
	}
	return strings.Join(parts, "&")
}

// SetFormValue changes a form control the way a user would: text-like inputs
// and textareas get the value, checkboxes and radios with a matching value are
// checked, and the matching option of a select is selected.
func SetFormValue(form *goquery.Selection, name, value string) error {
	controls := form.Find(fieldSelector).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		n, _ := sel.Attr("name")
		return n == name
	})
	if controls.Length() == 0 {
		return fmt.Errorf("no form field named %q", name)
	}

	matched := false
	controls.Each(func(_ int, sel *goquery.Selection) {
		if matched {
			return
		}
		switch sel.Get(0).DataAtom {
		case atom.Input:
			switch inputType(sel) {
			case "checkbox":
				if v, _ := sel.Attr("value"); v == value || (v == "" && value == "on") {
					sel.SetAttr("checked", "checked")
					matched = true
				}
			case "radio":
				if v, _ := sel.Attr("value"); v == value {
					controls.Each(func(_ int, other *goquery.Selection) {
						if inputType(other) == "radio" {
							other.RemoveAttr("checked")
						}
					})
					sel.SetAttr("checked", "checked")
					matched = true
				}
			case "submit", "button", "reset", "image", "file":
			default:
				sel.SetAttr("value", value)
				matched = true
			}

		case atom.Select:
			_, multiple := sel.Attr("multiple")
			options := sel.Find("option")
			options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
				if optionValue(opt) != value {
					return true
				}
				if !multiple {
					options.RemoveAttr("selected")
				}
				opt.SetAttr("selected", "selected")
				matched = true
				return false
			})

		case atom.Textarea:
			sel.SetText(value)
			matched = true
		}
	})

	if !matched {
		return fmt.Errorf("field %q has no option %q", name, value)
	}
	return nil
}

// ClearFormValue unchecks every checkbox named name.
func ClearFormValue(form *goquery.Selection, name string) {
	form.Find(`input[type="checkbox"]`).Each(func(_ int, sel *goquery.Selection) {
		if n, _ := sel.Attr("name"); n == name {
			sel.RemoveAttr("checked")
		}
	})
}

func inputType(sel *goquery.Selection) string {
	t, _ := sel.Attr("type")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "text"
	}
	return t
}

// isDisabled reports whether the control or an enclosing fieldset is disabled.
func isDisabled(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("disabled"); ok {
		return true
	}
	for n := sel.Get(0).Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Fieldset && hasAttr(n, "disabled") {
			return true
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// selectedValues returns the submitted values of a select element. A
// single-choice select with nothing marked selected submits its first enabled
// option.
func selectedValues(sel *goquery.Selection) []string {
	var values []string
	var firstEnabled *goquery.Selection

	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if _, disabled := opt.Attr("disabled"); disabled {
			return
		}
		if firstEnabled == nil {
			firstEnabled = opt
		}
		if _, selected := opt.Attr("selected"); selected {
			values = append(values, optionValue(opt))
		}
	})

	_, multiple := sel.Attr("multiple")
	if !multiple && len(values) > 1 {
		// Only the last selected option wins in a single-choice select.
		values = values[len(values)-1:]
	}
	if !multiple && len(values) == 0 && firstEnabled != nil {
		values = append(values, optionValue(firstEnabled))
	}
	return values
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.Join(strings.Fields(opt.Text()), " ")
}

// formEscape applies the application/x-www-form-urlencoded byte serializer:
// space becomes '+', and everything except ASCII alphanumerics and *-._ is
// percent-encoded.
func formEscape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}
