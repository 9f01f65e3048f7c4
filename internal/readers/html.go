package readers

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// readHTML loads the statement table out of an HTML export: the first
// table whose first row has at least minDataFields cells. Banks pad these
// pages with layout tables that never reach that width.
func readHTML(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	for _, table := range findNodes(doc, "table") {
		rows := tableRows(table)
		if len(rows) > 0 && len(rows[0]) >= minDataFields {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("no statement table found in %s", path)
}

// tableRows extracts the cell text of every tr in a table node.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	for _, tr := range findNodes(table, "tr") {
		var cells []string
		for _, cell := range findNodes(tr, "td", "th") {
			cells = append(cells, nodeText(cell))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// findNodes collects descendant element nodes with any of the given tags,
// in document order.
func findNodes(root *html.Node, tags ...string) []*html.Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}

	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && want[n.Data] {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// nodeText concatenates the text content of a node, whitespace collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
