package vdom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseHTML parses an HTML fragment into a KindFragment tree.
// Element data-key attributes become Key. Comments are dropped.
func ParseHTML(src string) (*VNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	root := &VNode{Kind: KindFragment, Children: make([]*VNode, 0)}
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if n := fromHTML(s.Get(0)); n != nil {
			root.Children = append(root.Children, n)
		}
	})
	return root, nil
}

// MustParseHTML is like ParseHTML but panics on error.
func MustParseHTML(src string) *VNode {
	n, err := ParseHTML(src)
	if err != nil {
		panic(err)
	}
	return n
}

func fromHTML(n *html.Node) *VNode {
	switch n.Type {
	case html.TextNode:
		return Text(n.Data)
	case html.ElementNode:
		node := &VNode{
			Kind:     KindElement,
			Tag:      n.Data,
			Props:    make(Props, len(n.Attr)),
			Children: make([]*VNode, 0),
		}
		for _, a := range n.Attr {
			if a.Key == KeyAttr {
				node.Key = a.Val
				continue
			}
			node.Props[a.Key] = a.Val
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	default:
		return nil
	}
}
