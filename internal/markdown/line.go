package markdown

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown/ast"
)

// Link is a clickable span of a display line. Start and End are byte offsets.
type Link struct {
	Start  int
	End    int
	Target string
}

// Line is one line of marked-up text reduced to what a surface displays.
type Line struct {
	Text  string
	Level int // heading level, 0 for body text
	Links []Link
}

// ParseLine strips the markup from a single line, keeping link spans.
// Line numbers of marked-up text and display text therefore match one to one.
func ParseLine(src string) Line {
	if strings.TrimSpace(src) == "" {
		return Line{}
	}

	var (
		b     strings.Builder
		out   Line
		stack []int
	)
	ast.WalkFunc(parse(src), func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if entering {
				out.Level = n.Level
			}
		case *ast.ListItem:
			if entering {
				if n.ListFlags&ast.ListTypeOrdered != 0 {
					start := 1
					if list, ok := n.Parent.(*ast.List); ok && list.Start > 0 {
						start = list.Start
					}
					fmt.Fprintf(&b, "%d. ", start)
				} else {
					b.WriteString("• ")
				}
			}
		case *ast.Link:
			if entering {
				stack = append(stack, b.Len())
			} else if len(stack) > 0 {
				start := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				out.Links = append(out.Links, Link{Start: start, End: b.Len(), Target: string(n.Destination)})
			}
		case *ast.Softbreak, *ast.Hardbreak:
			if entering {
				b.WriteByte(' ')
			}
		default:
			if !entering {
				return ast.GoToNext
			}
			if leaf := node.AsLeaf(); leaf != nil {
				b.WriteString(strings.ReplaceAll(strings.TrimRight(string(leaf.Literal), "\n"), "\n", " "))
			}
		}
		return ast.GoToNext
	})

	out.Text = b.String()
	if out.Text == "" {
		out.Text = strings.TrimSpace(src)
		out.Links = nil
	}
	return out
}
