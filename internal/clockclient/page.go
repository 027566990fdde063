package clockclient

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// pageValues is what the clock's pages carry: the <h1> heading, "Label: value"
// table headings and the value of every <input> with an id.
type pageValues struct {
	heading string
	labels  map[string]string
	inputs  map[string]string
}

// scanPage walks the page's tokens and collects its values. Text is
// unescaped by the tokenizer.
func scanPage(page string) (*pageValues, error) {
	v := &pageValues{
		labels: make(map[string]string),
		inputs: make(map[string]string),
	}

	z := html.NewTokenizer(strings.NewReader(page))
	var (
		current atom.Atom
		text    strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, NewParseError("failed to read page", err)
			}
			return v, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch tag := atom.Lookup(name); tag {
			case atom.H1, atom.Th:
				current = tag
				text.Reset()
			case atom.Input:
				if id, value, ok := inputValue(z, hasAttr); ok {
					v.inputs[id] = value
				}
			}

		case html.TextToken:
			if current != 0 {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			if tag == 0 || tag != current {
				continue
			}
			if tag == atom.H1 {
				if v.heading == "" {
					v.heading = text.String()
				}
			} else if key, value, ok := strings.Cut(text.String(), ":"); ok {
				v.labels[strings.TrimSpace(key)] = strings.TrimPrefix(value, " ")
			}
			current = 0
		}
	}
}

// inputValue returns the id and value attributes of the current <input>.
func inputValue(z *html.Tokenizer, hasAttr bool) (id, value string, ok bool) {
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		switch string(key) {
		case "id":
			id = string(val)
		case "value":
			value = string(val)
		}
	}
	return id, value, id != ""
}
