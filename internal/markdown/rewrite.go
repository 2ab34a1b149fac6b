package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

func parse(src string) ast.Node {
	return gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))
}

// Destinations returns the unique link destinations in src, in document order.
func Destinations(src string) []string {
	seen := make(map[string]bool)
	var dests []string
	ast.WalkFunc(parse(src), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if !seen[dest] {
				seen[dest] = true
				dests = append(dests, dest)
			}
		}
		return ast.GoToNext
	})
	return dests
}

// RewriteLinks rewrites markdown link destinations using the provided link map.
func RewriteLinks(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}
	return RewriteLinksFunc(src, func(dest string) (string, bool) {
		newDest, ok := linkMap[dest]
		return newDest, ok
	})
}

// RewriteLinksFunc rewrites every link destination for which fn reports true.
// Destinations are found on the AST; the replacement itself is textual so the
// rest of the markup is preserved byte for byte.
func RewriteLinksFunc(src string, fn func(dest string) (string, bool)) string {
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement
	for _, dest := range Destinations(src) {
		if newDest, ok := fn(dest); ok && newDest != dest {
			replacements = append(replacements, replacement{dest, newDest})
		}
	}
	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination)
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, r := range replacements {
			suffix := "]: " + r.oldDest
			if strings.HasSuffix(trimmed, suffix) {
				lines[i] = strings.Replace(line, suffix, "]: "+r.newDest, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
