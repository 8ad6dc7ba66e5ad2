// Package comment renders the HTML fragments the Hacker News API embeds in
// comment text, story text and user about fields into wrapped terminal
// lines. The API emits a small tag set: p, i, em, b, a, pre/code and the
// occasional blockquote; everything else degrades to its text content.
package comment

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type renderer struct {
	width int
}

// Lines renders an HTML fragment into wrapped lines. A fragment that fails
// to parse falls back to entity-unescaped plain text.
func Lines(raw string, width int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	body := findBodyNode(doc)
	if body == nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	r := renderer{width: max(1, width)}
	return trimBlankLines(r.renderBlocks(body))
}

// Text flattens an HTML fragment to a single plain string, for one-line
// previews and search snippets.
func Text(raw string) string {
	lines := Lines(raw, 1<<20)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, " ")
}

// renderBlocks walks the top level of a fragment. The API wraps every
// paragraph after the first in <p>, so bare text at the top level is the
// opening paragraph.
func (r renderer) renderBlocks(body *nethtml.Node) []string {
	out := make([]string, 0, 8)
	var pending []string

	flush := func() {
		if len(pending) == 0 {
			return
		}
		text := normalizeText(strings.Join(pending, ""))
		pending = nil
		if text == "" {
			return
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, wrapText(text, r.width)...)
	}

	for child := body.FirstChild; child != nil; child = child.NextSibling {
		switch {
		case child.Type == nethtml.TextNode:
			pending = append(pending, child.Data)
		case child.Type == nethtml.ElementNode:
			switch strings.ToLower(child.Data) {
			case "p":
				flush()
				text := normalizeText(r.renderInline(child))
				if text == "" {
					continue
				}
				if len(out) > 0 {
					out = append(out, "")
				}
				out = append(out, wrapText(text, r.width)...)
			case "pre":
				flush()
				if len(out) > 0 {
					out = append(out, "")
				}
				out = append(out, r.renderPre(child)...)
			case "blockquote":
				flush()
				if len(out) > 0 {
					out = append(out, "")
				}
				text := normalizeText(r.renderInline(child))
				for _, line := range wrapText(text, max(1, r.width-2)) {
					out = append(out, quotePrefix+quoteStyle.Render(line))
				}
			default:
				pending = append(pending, r.renderInline(child))
			}
		}
	}
	flush()
	return out
}

// renderPre emits code blocks verbatim, indented and unwrapped. HN relies
// on leading spaces for code formatting, so whitespace survives.
func (r renderer) renderPre(node *nethtml.Node) []string {
	text := html.UnescapeString(collectRawText(node))
	text = strings.TrimRight(text, "\n")
	text = strings.TrimPrefix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, codeStyle.Render("  "+strings.TrimRight(line, " ")))
	}
	return out
}

func (r renderer) renderInline(node *nethtml.Node) string {
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(r.renderInlineNode(child))
	}
	return b.String()
}

func (r renderer) renderInlineNode(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
		tag := strings.ToLower(node.Data)
		switch tag {
		case "script", "style", "noscript":
			return ""
		case "br":
			return "\n"
		case "a":
			text := normalizeText(r.renderInline(node))
			href := strings.TrimSpace(nodeAttr(node, "href"))
			switch {
			case href == "":
				return text
			case text == "", strings.EqualFold(text, href):
				return linkStyle.Render(href)
			default:
				return text + " (" + linkStyle.Render(href) + ")"
			}
		case "i", "em":
			text := normalizeText(r.renderInline(node))
			if text == "" {
				return ""
			}
			return italicStyle.Render(text)
		case "b", "strong":
			text := normalizeText(r.renderInline(node))
			if text == "" {
				return ""
			}
			return boldStyle.Render(text)
		case "code":
			text := normalizeText(r.renderInline(node))
			if text == "" {
				return ""
			}
			return codeStyle.Render(text)
		default:
			return r.renderInline(node)
		}
	default:
		return ""
	}
}

func normalizeText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, "\n")
}

func trimBlankLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for visibleLen(word) > width && !strings.Contains(word, "\x1b") {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, word[:width])
				word = word[width:]
			}

			if line == "" {
				line = word
				continue
			}
			if visibleLen(line)+1+visibleLen(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}

func stripANSI(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func collectRawText(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(collectRawText(child))
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
