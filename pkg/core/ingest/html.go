package ingest

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelectors = "p, div, br, tr, li, h1, h2, h3, h4, h5, h6, table"

// HTMLToText flattens an HTML disclosure into plain text. Block elements end
// a line and table cells are separated by tabs so row-oriented patterns still
// see label and value on one line.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	doc.Find("td, th").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\t")
	})
	doc.Find(blockSelectors).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
