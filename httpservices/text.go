package httpservices

import (
	"bytes"
	"context"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/microcosm-cc/bluemonday"
)

var (
	titleRegex         = regexp.MustCompile(`(?is)<title.*?>(.*?)</title>`)
	repeatedSpaceRegex = regexp.MustCompile(`\s+`)
)

// StrictPolicy values are reused across calls.
var policyPool = sync.Pool{
	New: func() any { return bluemonday.StrictPolicy() },
}

// Page is the plain-text content of an HTML document.
type Page struct {
	Title string
	Text  string
}

// ExtractText returns a service that strips all markup from an HTML body.
// Input must be []byte or string. Output is a Page.
func ExtractText[S any]() pipeline.Service[S] {
	return pipeline.Named[S]("extracttext", pipeline.ServiceFunc[S](func(_ context.Context, input any, _ *pipeline.Shared[S]) (any, error) {
		raw, err := jsonBytes("extracttext", input)
		if err != nil {
			return nil, err
		}
		return extract(raw), nil
	}))
}

// StripHTML returns a service that outputs only the text of an HTML body as a string.
func StripHTML[S any]() pipeline.Service[S] {
	return pipeline.Named[S]("striphtml", pipeline.ServiceFunc[S](func(_ context.Context, input any, _ *pipeline.Shared[S]) (any, error) {
		raw, err := jsonBytes("striphtml", input)
		if err != nil {
			return nil, err
		}
		return extract(raw).Text, nil
	}))
}

func extract(raw []byte) Page {
	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)

	var page Page
	if m := titleRegex.FindSubmatch(raw); len(m) == 2 {
		page.Title = clean(policy.SanitizeBytes(m[1]))
	}
	page.Text = clean(policy.SanitizeReader(bytes.NewReader(raw)).Bytes())
	return page
}

func clean(b []byte) string {
	return strings.TrimSpace(html.UnescapeString(repeatedSpaceRegex.ReplaceAllString(string(b), " ")))
}
