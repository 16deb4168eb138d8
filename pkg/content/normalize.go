// Package content normalizes the HTML text of a consolidated law version into
// a stable, line-oriented form so successive versions diff cleanly.
package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrEmpty is returned for content with no markup or text.
var ErrEmpty = errors.New("empty content")

// lineBreaks matches runs of spaces and line terminators. Tabs are kept.
var lineBreaks = regexp.MustCompile(`[ \n\r]+`)

// indent is the per-level indentation of the pretty-printed output.
const indent = " "

// Normalize collapses whitespace in raw and re-renders it with one element,
// text run or comment per line, nested one space per level. Fragments are
// rendered as fragments; a full document keeps its html, head and body
// elements.
func Normalize(raw string) (string, error) {
	collapsed := strings.TrimSpace(lineBreaks.ReplaceAllString(raw, " "))
	if collapsed == "" {
		return "", ErrEmpty
	}

	nodes, err := parse(collapsed)
	if err != nil {
		return "", fmt.Errorf("parsing content: %w", err)
	}

	var builder strings.Builder
	for _, node := range nodes {
		render(&builder, node, 0)
	}
	if builder.Len() == 0 {
		return "", ErrEmpty
	}
	return builder.String(), nil
}

func parse(markup string) ([]*html.Node, error) {
	if isDocument(markup) {
		document, err := html.Parse(strings.NewReader(markup))
		if err != nil {
			return nil, err
		}
		return children(document), nil
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), body)
}

func isDocument(markup string) bool {
	head := strings.ToLower(markup)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype")
}

func children(node *html.Node) []*html.Node {
	var nodes []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		nodes = append(nodes, child)
	}
	return nodes
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attributeEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")

func render(builder *strings.Builder, node *html.Node, depth int) {
	prefix := strings.Repeat(indent, depth)

	switch node.Type {
	case html.TextNode:
		text := strings.TrimSpace(node.Data)
		if text == "" {
			return
		}
		if node.Parent != nil && isRawText(node.Parent) {
			writeLine(builder, prefix, text)
			return
		}
		writeLine(builder, prefix, textEscaper.Replace(text))

	case html.CommentNode:
		writeLine(builder, prefix, "<!--"+node.Data+"-->")

	case html.DoctypeNode:
		writeLine(builder, prefix, "<!DOCTYPE "+node.Data+">")

	case html.ElementNode:
		if isVoid(node) {
			writeLine(builder, prefix, openTag(node, true))
			return
		}
		writeLine(builder, prefix, openTag(node, false))
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			render(builder, child, depth+1)
		}
		writeLine(builder, prefix, "</"+node.Data+">")

	case html.DocumentNode:
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			render(builder, child, depth)
		}
	}
}

func openTag(node *html.Node, selfClosing bool) string {
	var tag strings.Builder
	tag.WriteString("<")
	tag.WriteString(node.Data)
	for _, attribute := range node.Attr {
		tag.WriteString(" ")
		if attribute.Namespace != "" {
			tag.WriteString(attribute.Namespace)
			tag.WriteString(":")
		}
		tag.WriteString(attribute.Key)
		tag.WriteString(`="`)
		tag.WriteString(attributeEscaper.Replace(attribute.Val))
		tag.WriteString(`"`)
	}
	if selfClosing {
		tag.WriteString("/")
	}
	tag.WriteString(">")
	return tag.String()
}

func writeLine(builder *strings.Builder, prefix, text string) {
	builder.WriteString(prefix)
	builder.WriteString(text)
	builder.WriteString("\n")
}

func isVoid(node *html.Node) bool {
	switch node.DataAtom {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

func isRawText(node *html.Node) bool {
	switch node.DataAtom {
	case atom.Script, atom.Style:
		return true
	}
	return false
}
