// SPDX-License-Identifier: MPL-2.0

package lostfilm

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Form is the first HTML form of a page, ready to be submitted.
type Form struct {
	Action string
	Values url.Values
}

// ParseForm extracts the action and the named inputs of the first form in
// page. A relative action is resolved against base.
func ParseForm(page string, base *url.URL) (*Form, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing login reply: %w", err)
	}

	formNode := findElement(doc, "form")
	if formNode == nil {
		return nil, fmt.Errorf("%w: no form in sign-on reply", ErrLoginFailed)
	}
	action := attr(formNode, "action")
	if action == "" {
		return nil, fmt.Errorf("%w: form has no action", ErrLoginFailed)
	}

	if base != nil {
		ref, err := url.Parse(action)
		if err != nil {
			return nil, fmt.Errorf("%w: bad form action %q", ErrLoginFailed, action)
		}
		action = base.ResolveReference(ref).String()
	}

	values := url.Values{}
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			if name := attr(n, "name"); name != "" {
				values.Add(name, attr(n, "value"))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(formNode)

	return &Form{Action: action, Values: values}, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
