// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return markdownParserInstance
}

// RenderMarkdown renders markdown as styled terminal text wrapped to
// width. Soft line breaks become spaces so hard-wrapped source reflows.
// Fenced code blocks with a language are syntax highlighted.
func RenderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	width = max(width, 10)
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// The output always lands in the TUI, so skip color detection,
	// which would produce plain text when stderr is not a terminal.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		lipRenderer: lipRenderer,
	}
	lines := renderer.blocks(document, width, true)
	return strings.Join(lines, "\n")
}

type markdownRenderer struct {
	source      []byte
	theme       Theme
	lipRenderer *lipgloss.Renderer
}

// inlineStyle accumulates emphasis while descending inline nodes.
type inlineStyle struct {
	bold          bool
	italic        bool
	strikethrough bool
	link          bool
}

func (renderer *markdownRenderer) style(state inlineStyle) lipgloss.Style {
	style := renderer.lipRenderer.NewStyle().Foreground(renderer.theme.NormalText)
	if state.bold {
		style = style.Bold(true)
	}
	if state.italic {
		style = style.Italic(true)
	}
	if state.strikethrough {
		style = style.Strikethrough(true)
	}
	if state.link {
		style = style.Foreground(renderer.theme.LinkForeground).Underline(true)
	}
	return style
}

// blocks renders the block children of parent. Loose containers get a
// blank line between children; tight list items do not.
func (renderer *markdownRenderer) blocks(parent ast.Node, width int, loose bool) []string {
	var lines []string
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		rendered := renderer.block(child, width)
		if len(rendered) == 0 {
			continue
		}
		if loose && len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, rendered...)
	}
	return lines
}

func (renderer *markdownRenderer) block(node ast.Node, width int) []string {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return wrapLines(renderer.inline(node, inlineStyle{}), width)

	case *ast.Heading:
		content := renderer.inline(node, inlineStyle{bold: true})
		style := renderer.lipRenderer.NewStyle().Bold(true).Foreground(renderer.theme.HeaderForeground)
		if node.Level == 1 {
			style = style.Underline(true)
		}
		return wrapLines(style.Render(ansi.Strip(content)), width)

	case *ast.FencedCodeBlock:
		return renderer.code(node, string(node.Language(renderer.source)), width)

	case *ast.CodeBlock:
		return renderer.code(node, "", width)

	case *ast.List:
		return renderer.list(node, width)

	case *ast.Blockquote:
		bar := renderer.lipRenderer.NewStyle().Foreground(renderer.theme.BorderColor).Render("│ ")
		inner := renderer.blocks(node, max(width-2, 1), true)
		for index, line := range inner {
			inner[index] = bar + line
		}
		return inner

	case *ast.ThematicBreak:
		return []string{renderer.lipRenderer.NewStyle().Foreground(renderer.theme.BorderColor).Render(strings.Repeat("─", width))}

	case *ast.HTMLBlock:
		var raw strings.Builder
		lines := node.Lines()
		for index := 0; index < lines.Len(); index++ {
			segment := lines.At(index)
			raw.Write(segment.Value(renderer.source))
		}
		stripped := strings.TrimSpace(stripHTMLTags(raw.String()))
		if stripped == "" {
			return nil
		}
		return wrapLines(renderer.style(inlineStyle{}).Render(stripped), width)

	default:
		return renderer.blocks(node, width, true)
	}
}

func (renderer *markdownRenderer) list(list *ast.List, width int) []string {
	var lines []string
	number := list.Start
	if number == 0 {
		number = 1
	}
	bulletStyle := renderer.lipRenderer.NewStyle().Foreground(renderer.theme.FaintText)
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		bullet := "• "
		if list.IsOrdered() {
			bullet = strconv.Itoa(number) + ". "
			number++
		}
		bulletWidth := ansi.StringWidth(bullet)
		inner := renderer.blocks(item, max(width-bulletWidth, 1), !list.IsTight)
		if len(inner) == 0 {
			inner = []string{""}
		}
		if !list.IsTight && len(lines) > 0 {
			lines = append(lines, "")
		}
		indent := strings.Repeat(" ", bulletWidth)
		for index, line := range inner {
			if index == 0 {
				lines = append(lines, bulletStyle.Render(bullet)+line)
			} else {
				lines = append(lines, indent+line)
			}
		}
	}
	return lines
}

func (renderer *markdownRenderer) code(node ast.Node, language string, width int) []string {
	var source strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		source.Write(segment.Value(renderer.source))
	}
	code := strings.TrimRight(source.String(), "\n")

	rendered := ""
	if language != "" {
		var highlighted bytes.Buffer
		if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err == nil {
			rendered = strings.TrimRight(highlighted.String(), "\n")
		}
	}
	if rendered == "" {
		rendered = renderer.lipRenderer.NewStyle().Foreground(renderer.theme.FaintText).Render(code)
	}

	out := strings.Split(rendered, "\n")
	for index, line := range out {
		line = "  " + line
		if ansi.StringWidth(line) > width {
			line = ansi.Truncate(line, width, "…")
		}
		out[index] = line
	}
	return out
}

// inline renders the inline children of node as one styled string.
// Hard line breaks are kept as newlines.
func (renderer *markdownRenderer) inline(node ast.Node, state inlineStyle) string {
	var out strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			value := string(child.Segment.Value(renderer.source))
			if child.HardLineBreak() {
				value = strings.TrimRight(value, " ")
			}
			out.WriteString(renderer.style(state).Render(value))
			if child.HardLineBreak() {
				out.WriteString("\n")
			} else if child.SoftLineBreak() {
				out.WriteString(" ")
			}

		case *ast.String:
			out.WriteString(renderer.style(state).Render(string(child.Value)))

		case *ast.Emphasis:
			nested := state
			if child.Level >= 2 {
				nested.bold = true
			} else {
				nested.italic = true
			}
			out.WriteString(renderer.inline(child, nested))

		case *extast.Strikethrough:
			nested := state
			nested.strikethrough = true
			out.WriteString(renderer.inline(child, nested))

		case *ast.CodeSpan:
			var code strings.Builder
			for part := child.FirstChild(); part != nil; part = part.NextSibling() {
				if textNode, ok := part.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			out.WriteString(renderer.lipRenderer.NewStyle().
				Foreground(renderer.theme.Accent).
				Render(code.String()))

		case *ast.Link:
			nested := state
			nested.link = true
			out.WriteString(renderer.inline(child, nested))

		case *ast.AutoLink:
			nested := state
			nested.link = true
			out.WriteString(renderer.style(nested).Render(string(child.URL(renderer.source))))

		case *ast.Image:
			alt := ansi.Strip(renderer.inline(child, state))
			out.WriteString(renderer.lipRenderer.NewStyle().
				Foreground(renderer.theme.FaintText).
				Render("[image: " + alt + "]"))

		case *ast.RawHTML:
			// Inline tags carry no terminal meaning.

		default:
			out.WriteString(renderer.inline(child, state))
		}
	}
	return out.String()
}

// wrapLines word-wraps styled text to width and splits it into lines.
func wrapLines(content string, width int) []string {
	content = strings.TrimRight(content, " ")
	if content == "" {
		return nil
	}
	var lines []string
	for _, paragraph := range strings.Split(content, "\n") {
		wrapped := ansi.Wrap(paragraph, width, "")
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}
	return lines
}

func stripHTMLTags(html string) string {
	var out strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			out.WriteRune(character)
		}
	}
	return out.String()
}
