// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package document inspects the rich-text editor's JSON tree. The tree is kept
// opaque: only the leading heading is pattern-matched for the title, and a
// plain markdown rendering is derived for full-text search.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Document shape errors.
var (
	ErrUnparseable   = errors.New("content is not valid JSON")
	ErrEmptyDocument = errors.New("content is not a non-empty array of nodes")
	ErrNotH1         = errors.New("first node is not an H1 with text")
)

// Node is one element of the editor tree. Unknown keys are preserved untouched.
type Node = map[string]any

// Document is the root of the editor tree: an ordered list of block nodes.
type Document []Node

var strictPolicy = bluemonday.StrictPolicy()

// Parse decodes raw editor JSON. The document must be a non-empty array of objects.
func Parse(raw []byte) (Document, error) {
	var nodes []any
	if err := json.Unmarshal(raw, &nodes); err != nil {
		var anyValue any
		if json.Unmarshal(raw, &anyValue) == nil {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyDocument
	}

	doc := make(Document, 0, len(nodes))
	for i, n := range nodes {
		obj, ok := n.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: node %d is not an object", ErrEmptyDocument, i)
		}
		doc = append(doc, obj)
	}
	return doc, nil
}

// NewDefault returns the body of a freshly created draft: a single H1 holding title.
func NewDefault(title string) Document {
	return Document{
		{
			"type":     "h1",
			"children": []any{map[string]any{"text": title}},
		},
	}
}

// Marshal encodes the document back to JSON.
func (d Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// ExtractTitle returns the text of the first child of the leading H1 node.
// Any other shape fails with ErrNotH1; the title is never guessed.
func ExtractTitle(doc Document) (string, error) {
	if len(doc) == 0 {
		return "", ErrEmptyDocument
	}

	first := doc[0]
	if nodeType(first) != "h1" {
		return "", ErrNotH1
	}

	children := nodeChildren(first)
	if len(children) == 0 {
		return "", ErrNotH1
	}
	leaf, ok := children[0].(map[string]any)
	if !ok {
		return "", ErrNotH1
	}
	text, ok := leaf["text"].(string)
	if !ok {
		return "", ErrNotH1
	}

	title := strings.TrimSpace(SanitizeText(text))
	if title == "" {
		return "", ErrNotH1
	}
	return title, nil
}

// SanitizeText strips any markup smuggled into plain text fields.
func SanitizeText(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

func nodeType(n Node) string {
	t, _ := n["type"].(string)
	return t
}

func nodeChildren(n Node) []any {
	children, _ := n["children"].([]any)
	return children
}
