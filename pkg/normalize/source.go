package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanSource extracts the client name from an anchor such as
// `<a href="..." rel="nofollow">Sprinklr</a>`. A value without markup is
// returned unchanged. Markup without an anchor yields its text content.
func CleanSource(source string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	var (
		sawTag    bool
		inAnchor  bool
		sawAnchor bool
		anchor    strings.Builder
		all       strings.Builder
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if !sawTag {
				return source
			}
			if sawAnchor {
				return strings.TrimSpace(anchor.String())
			}
			return strings.TrimSpace(all.String())
		case html.StartTagToken:
			sawTag = true
			if name, _ := tokenizer.TagName(); string(name) == "a" && !sawAnchor {
				inAnchor = true
				sawAnchor = true
			}
		case html.EndTagToken:
			sawTag = true
			if name, _ := tokenizer.TagName(); string(name) == "a" {
				inAnchor = false
			}
		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			sawTag = true
		case html.TextToken:
			text := tokenizer.Text()
			all.Write(text)
			if inAnchor {
				anchor.Write(text)
			}
		}
	}
}
