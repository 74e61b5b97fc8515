package oracle

import (
	"strings"

	"golang.org/x/net/html"
)

// cleanText strips markup from an abstract or title and collapses
// whitespace. Platforms often deliver JATS or HTML fragments; plain text
// passes through unchanged apart from whitespace.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			tt := tokenizer.Token()
			name := localName(tt.Data)
			if isSkippedTag(name) {
				if tt.Type == html.StartTagToken {
					skip++
				} else if tt.Type == html.EndTagToken && skip > 0 {
					skip--
				}
			}
			if !isInlineTag(name) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// localName drops a namespace prefix such as "jats:".
func localName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.ToLower(tag)
}

func isSkippedTag(name string) bool {
	return name == "script" || name == "style"
}

func isInlineTag(name string) bool {
	switch name {
	case "sub", "sup", "i", "b", "em", "strong", "span", "italic", "bold", "u", "a", "sc":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
