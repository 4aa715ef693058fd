package fetch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// pageCharBudget approximates one rendered letter-size page of text when an
// exhibit has no native page breaks.
const pageCharBudget = 4000

// htmlText flattens an HTML exhibit into block-separated text.
func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			case "tr":
				// Keep table rows on one line so columns stay adjacent
				// for the extraction model.
				if t := rowContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	walk(body)

	return strings.Join(blocks, "\n\n"), nil
}

// paginate splits flat text into synthetic pages. Native form feeds win;
// otherwise blocks are packed up to pageCharBudget characters per page.
func paginate(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.Contains(text, "\f") {
		var pages []string
		for _, p := range strings.Split(text, "\f") {
			if p = strings.TrimSpace(p); p != "" {
				pages = append(pages, p)
			}
		}
		return pages
	}

	var pages []string
	var current strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(block) > pageCharBudget {
			pages = append(pages, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	if current.Len() > 0 {
		pages = append(pages, current.String())
	}
	return pages
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func rowContent(n *html.Node) string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			if t := textContent(n); t != "" {
				cells = append(cells, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(cells, "\t")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
