// Package normalize strips captured job-posting HTML down to extraction-ready
// plain text. It is a pure transformation with no side effects: the only
// lossy behavior is the deterministic size cap applied to the tail.
package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxTextLen bounds the normalized output so downstream extraction calls stay
// within model input limits. Truncation always keeps the prefix.
const MaxTextLen = 50_000

// noiseSelector matches elements that never carry posting content.
const noiseSelector = "script, style, noscript, meta, link, head, nav, header, footer, aside, form, button, iframe, svg, img, video, audio, canvas"

// noiseRoles are ARIA roles whose subtrees are presentational chrome.
var noiseRoles = []string{"navigation", "banner", "contentinfo", "menu", "menubar", "toolbar"}

// contentSelectors are tried in order to find the main posting body before
// falling back to the whole document body.
var contentSelectors = []string{
	"main",
	"[role='main']",
	"#content",
	".content",
	"article",
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Normalize converts raw HTML markup to plain text. Markup that fails to
// parse is treated as already-plain text; either way the result is
// whitespace-normalized and capped at MaxTextLen.
func Normalize(rawMarkup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return Cap(collapseWhitespace(rawMarkup))
	}

	doc.Find(noiseSelector).Remove()
	for _, role := range noiseRoles {
		doc.Find("[role='" + role + "']").Remove()
	}

	var main *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			main = s.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}
	if main.Length() == 0 {
		main = doc.Selection
	}

	return Cap(collapseWhitespace(main.Text()))
}

// Cap truncates text at MaxTextLen runes, keeping the prefix. The cut lands
// on a rune boundary so capped output is always valid UTF-8.
func Cap(text string) string {
	if len(text) <= MaxTextLen {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxTextLen {
		return text
	}
	return string(runes[:MaxTextLen])
}

// collapseWhitespace normalizes line endings, squeezes space runs, and
// limits consecutive blank lines to one.
func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimSpace(spaceRun.ReplaceAllString(line, " ")))
	}

	result := strings.Join(out, "\n")
	result = blankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
