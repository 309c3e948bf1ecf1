package textsrc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// Speakable converts markdown into plain sentences. Headings, paragraphs,
// list items and block quotes are read; code blocks, raw HTML and thematic
// breaks are dropped. Links and images read as their text. Every block ends
// in sentence punctuation so the voice pauses between them.
func Speakable(markdown string) (string, error) {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock, ast.KindThematicBreak:
			return ast.WalkSkipChildren, nil

		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock:
			if s := Normalize(inlineText(n, source)); s != "" {
				blocks = append(blocks, terminate(s))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown AST: %w", err)
	}

	return strings.Join(blocks, " "), nil
}

// inlineText concatenates the readable text below node.
func inlineText(node ast.Node, source []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(source))
		case *ast.RawHTML:
			// skip inline tags
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}

// terminate appends a full stop unless s already ends in punctuation.
func terminate(s string) string {
	r := []rune(s)
	if unicode.IsPunct(r[len(r)-1]) {
		return s
	}
	return s + "."
}
