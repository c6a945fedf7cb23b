// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package document

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New().Parser()

// ToMarkdown renders the document as markdown for the search index.
// Only common block types get markdown syntax; anything else contributes its text.
func ToMarkdown(doc Document) string {
	blocks := make([]string, 0, len(doc))
	for _, n := range doc {
		if block := blockMarkdown(n); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func blockMarkdown(n Node) string {
	inline := strings.TrimSpace(inlineMarkdown(nodeChildren(n)))

	switch t := nodeType(n); t {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if inline == "" {
			return ""
		}
		return strings.Repeat("#", int(t[1]-'0')) + " " + inline
	case "blockquote":
		if inline == "" {
			return ""
		}
		return "> " + inline
	case "code_block":
		lines := make([]string, 0)
		for _, c := range nodeChildren(n) {
			if child, ok := c.(map[string]any); ok {
				lines = append(lines, plainText(nodeChildren(child)))
			}
		}
		return "```\n" + strings.Join(lines, "\n") + "\n```"
	case "hr":
		return "---"
	case "img", "image":
		url, _ := n["url"].(string)
		if url == "" {
			return ""
		}
		return "![" + plainText(nodeChildren(n)) + "](" + url + ")"
	default:
		if _, isList := n["listStyleType"]; isList && inline != "" {
			return "- " + inline
		}
		return inline
	}
}

func inlineMarkdown(children []any) string {
	var sb strings.Builder
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if txt, ok := child["text"].(string); ok {
			sb.WriteString(decorate(child, txt))
			continue
		}
		if nodeType(child) == "a" {
			url, _ := child["url"].(string)
			sb.WriteString("[" + inlineMarkdown(nodeChildren(child)) + "](" + url + ")")
			continue
		}
		sb.WriteString(inlineMarkdown(nodeChildren(child)))
	}
	return sb.String()
}

func decorate(leaf map[string]any, txt string) string {
	if strings.TrimSpace(txt) == "" {
		return txt
	}
	if on, _ := leaf["code"].(bool); on {
		return "`" + txt + "`"
	}
	if on, _ := leaf["bold"].(bool); on {
		txt = "**" + txt + "**"
	}
	if on, _ := leaf["italic"].(bool); on {
		txt = "_" + txt + "_"
	}
	return txt
}

func plainText(children []any) string {
	var sb strings.Builder
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if txt, ok := child["text"].(string); ok {
			sb.WriteString(txt)
			continue
		}
		sb.WriteString(plainText(nodeChildren(child)))
	}
	return sb.String()
}

// Excerpt returns the leading paragraph text of a markdown body, cut to at most
// maxRunes runes. Headings, code blocks and images are skipped.
func Excerpt(markdown string, maxRunes int) string {
	src := []byte(markdown)
	root := markdownParser.Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindImage:
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph:
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
		case ast.KindText:
			t := n.(*ast.Text)
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString(" ")
			}
		}
		if utf8.RuneCountInString(sb.String()) >= maxRunes {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	excerpt := strings.Join(strings.Fields(SanitizeText(sb.String())), " ")
	if utf8.RuneCountInString(excerpt) <= maxRunes {
		return excerpt
	}
	runes := []rune(excerpt)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
