package feed

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minArticleRunes is the shortest readability result accepted before the
// paragraph fallback is tried.
const minArticleRunes = 200

// TextFromHTML returns the visible text of an HTML fragment, with script and
// style content dropped and whitespace collapsed.
func TextFromHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}

	z := html.NewTokenizer(strings.NewReader(fragment))

	var (
		sb   strings.Builder
		skip int
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(sb.String())
		case html.StartTagToken:
			if isHiddenTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isHiddenTag(z) && skip > 0 {
				skip--
			}

			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func isHiddenTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()

	switch string(name) {
	case "script", "style", "noscript":
		return true
	default:
		return false
	}
}

// ExtractArticle pulls the main text out of a page. Readability is tried
// first; short or failed results fall back to the page's paragraphs.
func ExtractArticle(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		text := collapseSpace(article.TextContent)
		if len([]rune(text)) >= minArticleRunes {
			return text
		}
	}

	return paragraphText(bytes.NewReader(body))
}

func paragraphText(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}

	parts := make([]string, 0)

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := collapseSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	return strings.Join(dedupe(parts), " ")
}

// dedupe drops repeated paragraphs, typically boilerplate.
func dedupe(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := parts[:0]

	for _, p := range parts {
		if seen[p] {
			continue
		}

		seen[p] = true
		out = append(out, p)
	}

	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
