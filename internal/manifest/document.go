package manifest

import (
	"bytes"
	"errors"
	"strings"

	"github.com/beevik/etree"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	errNoRoot        = errors.New("document has no root element")
	errMultipleRoots = errors.New("document has more than one root element")
	errStrayText     = errors.New("document has text outside the root element")
)

// Layout records the byte-level conventions of a manifest on disk so a
// rewritten file keeps them.
type Layout struct {
	// BOM is true when the file starts with a UTF-8 byte order mark.
	BOM bool

	// CRLF is true when the file uses Windows line endings.
	CRLF bool
}

// Parse reads an XML document. Leading byte order marks are accepted and
// recorded in the returned Layout.
func Parse(data []byte) (*etree.Document, Layout, error) {
	layout := Layout{
		BOM:  bytes.HasPrefix(data, utf8BOM),
		CRLF: bytes.Contains(data, []byte("\r\n")),
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(bytes.TrimPrefix(data, utf8BOM)); err != nil {
		return nil, layout, err
	}
	if err := checkTopLevel(doc); err != nil {
		return nil, layout, err
	}
	return doc, layout, nil
}

// checkTopLevel rejects documents that etree reads leniently: exactly one
// root element is allowed, with only whitespace, comments and processing
// instructions around it.
func checkTopLevel(doc *etree.Document) error {
	roots := 0
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return errStrayText
			}
		}
	}
	switch {
	case roots == 0:
		return errNoRoot
	case roots > 1:
		return errMultipleRoots
	}
	return nil
}

// Serialize renders doc with two-space indentation and without an XML
// declaration, applying layout. The output always ends with a newline.
func Serialize(doc *etree.Document, layout Layout) ([]byte, error) {
	var decls []etree.Token
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			decls = append(decls, tok)
		}
	}
	for _, tok := range decls {
		doc.RemoveChild(tok)
	}

	doc.Indent(2)
	// Only escape what XML requires, so MSBuild conditions keep their quotes.
	doc.WriteSettings.CanonicalAttrVal = true
	doc.WriteSettings.CanonicalText = true

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}

	out = bytes.TrimRight(out, "\r\n")
	out = append(out, '\n')

	if layout.CRLF {
		out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if layout.BOM {
		out = append(append([]byte{}, utf8BOM...), out...)
	}
	return out, nil
}

// Elements returns every element named tag below root in document order,
// matching names case-insensitively. Matches are not searched further.
func Elements(root *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	var visit func(*etree.Element)
	visit = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Space == "" && strings.EqualFold(child.Tag, tag) {
				found = append(found, child)
				continue
			}
			visit(child)
		}
	}
	visit(root)
	return found
}

// AttrValue returns the value of the unprefixed attribute key, matched
// case-insensitively, or "" if it is absent.
func AttrValue(el *etree.Element, key string) string {
	if a := findAttr(el, key); a != nil {
		return a.Value
	}
	return ""
}
