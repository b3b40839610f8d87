package testhelpers

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

// TemplateRenderer renders templ components and asserts on the HTML
type TemplateRenderer struct {
	t    *testing.T
	html string
}

// NewTemplateRenderer creates a new template renderer for testing
func NewTemplateRenderer(t *testing.T) *TemplateRenderer {
	return &TemplateRenderer{t: t}
}

// Render renders a templ component and stores the HTML
func (r *TemplateRenderer) Render(component templ.Component) *TemplateRenderer {
	r.t.Helper()

	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		r.t.Fatalf("Failed to render component: %v", err)
	}
	r.html = buf.String()
	return r
}

// HTML returns the rendered HTML
func (r *TemplateRenderer) HTML() string {
	return r.html
}

// AssertContains checks if the rendered HTML contains a substring
func (r *TemplateRenderer) AssertContains(substring string) *TemplateRenderer {
	r.t.Helper()
	if !strings.Contains(r.html, substring) {
		r.t.Errorf("Expected HTML to contain %q.\nHTML: %s", substring, r.html)
	}
	return r
}

// AssertNotContains checks if the rendered HTML does not contain a substring
func (r *TemplateRenderer) AssertNotContains(substring string) *TemplateRenderer {
	r.t.Helper()
	if strings.Contains(r.html, substring) {
		r.t.Errorf("Expected HTML not to contain %q.\nHTML: %s", substring, r.html)
	}
	return r
}

// AssertHasElementWithID checks for an element with the given id
func (r *TemplateRenderer) AssertHasElementWithID(id string) *TemplateRenderer {
	r.t.Helper()
	if !strings.Contains(r.html, `id="`+id+`"`) {
		r.t.Errorf("Expected an element with id=%q.\nHTML: %s", id, r.html)
	}
	return r
}

// AssertHasDatastarAttribute checks for a data-* attribute with the given value
func (r *TemplateRenderer) AssertHasDatastarAttribute(attribute, value string) *TemplateRenderer {
	r.t.Helper()
	if !strings.Contains(r.html, "data-"+attribute+`="`+value+`"`) {
		r.t.Errorf("Expected attribute data-%s=%q.\nHTML: %s", attribute, value, r.html)
	}
	return r
}

// CountElements counts opening tags of the given element
func (r *TemplateRenderer) CountElements(tagName string) int {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tagName) + `[\s>]`)
	return len(re.FindAllString(r.html, -1))
}

// AssertElementCount checks how many times an element appears
func (r *TemplateRenderer) AssertElementCount(tagName string, expected int) *TemplateRenderer {
	r.t.Helper()
	if count := r.CountElements(tagName); count != expected {
		r.t.Errorf("Expected %d <%s> elements, found %d.\nHTML: %s", expected, tagName, count, r.html)
	}
	return r
}
