// Package htmlutil renders small, hand-built HTML elements into a string
// builder. It is deliberately not a DOM or template engine: callers that
// need to splice a handful of trusted tags into an existing document (e.g.
// a head-injection script) build an Element and render it, rather than
// parsing and re-serializing the surrounding document.
package htmlutil

import (
	"fmt"
	"html/template"
	"maps"
	"slices"
	"sort"
	"strings"
)

type Element struct {
	Tag                     string            `json:"tag,omitempty"`
	Attributes              map[string]string `json:"attributes,omitempty"`
	AttributesDangerousVals map[string]string `json:"attributesDangerousVals,omitempty"`
	BooleanAttributes       []string          `json:"booleanAttributes,omitempty"`
	TextContent             string            `json:"textContent,omitempty"`
	DangerousInnerHTML      string            `json:"dangerousInnerHTML,omitempty"`
	SelfClosing             bool              `json:"-"`
}

// see https://html.spec.whatwg.org/multipage/syntax.html#void-elements
var selfClosingTags = []string{
	"area", "base", "br", "col", "embed", "hr", "img",
	"input", "link", "meta", "source", "track", "wbr",
}

func RenderElementToBuilder(el *Element, htmlBuilder *strings.Builder) error {
	escapedTag := template.HTMLEscapeString(el.Tag)
	if escapedTag == "" {
		return fmt.Errorf("element has no tag")
	}

	isSelfClosing := slices.Contains(selfClosingTags, escapedTag) || el.SelfClosing

	escapedAttributes := combineIntoDangerousAttributes(el)
	hasAttributes := len(escapedAttributes) > 0

	htmlBuilder.WriteString("<")
	htmlBuilder.WriteString(escapedTag)

	if hasAttributes {
		escapedKeys := slices.Collect(maps.Keys(escapedAttributes))
		sort.Strings(escapedKeys)
		for _, escapedKey := range escapedKeys {
			writeAttribute(htmlBuilder, escapedKey, escapedAttributes[escapedKey])
		}
	}

	for _, booleanAttribute := range el.BooleanAttributes {
		htmlBuilder.WriteString(" ")
		htmlBuilder.WriteString(template.HTMLEscapeString(booleanAttribute))
	}

	if isSelfClosing {
		htmlBuilder.WriteString(" />")
	} else {
		htmlBuilder.WriteString(">")

		htmlBuilder.WriteString(combineIntoDangerousInnerHTML(el))

		htmlBuilder.WriteString("</")
		htmlBuilder.WriteString(escapedTag)
		htmlBuilder.WriteString(">")
	}

	return nil
}

func writeAttribute(htmlBuilder *strings.Builder, key, value string) {
	htmlBuilder.WriteString(" ")
	htmlBuilder.WriteString(key)
	htmlBuilder.WriteString(`="`)
	htmlBuilder.WriteString(value)
	htmlBuilder.WriteString(`"`)
}

func combineIntoDangerousAttributes(el *Element) map[string]string {
	attributes := make(map[string]string, len(el.Attributes)+len(el.AttributesDangerousVals))
	for k, v := range el.Attributes {
		escapedKey := template.HTMLEscapeString(k)
		attributes[escapedKey] = template.HTMLEscapeString(v)
	}
	for k, v := range el.AttributesDangerousVals {
		escapedKey := template.HTMLEscapeString(k)
		attributes[escapedKey] = v
	}
	return attributes
}

func combineIntoDangerousInnerHTML(el *Element) string {
	if el.DangerousInnerHTML != "" {
		return el.DangerousInnerHTML
	}
	if el.TextContent != "" {
		return template.HTMLEscapeString(el.TextContent)
	}
	return ""
}

// RenderInlineScriptToBuilder writes a classic inline <script> block whose
// body is trusted, pre-built JavaScript (not escaped).
func RenderInlineScriptToBuilder(body string, htmlBuilder *strings.Builder) error {
	return RenderElementToBuilder(&Element{
		Tag:                "script",
		DangerousInnerHTML: body,
	}, htmlBuilder)
}
