package encoder

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

type openTag struct {
	name string
	line int
}

func qualifiedName(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// checkXML 检查文档是否格式良好，错误信息沿用 libxml2 的措辞，例如
// "Opening and ending tag mismatch: titles line 1 and title"。
func checkXML(doc []byte) error {
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.Strict = true

	var stack []openTag
	roots := 0
	for {
		line, _ := d.InputPos()
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return translateSyntaxError(err, stack)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if roots > 0 {
					return errors.New("Extra content at the end of the document")
				}
				roots++
			}
			stack = append(stack, openTag{name: qualifiedName(t.Name), line: line})

		case xml.EndElement:
			if len(stack) == 0 {
				return errors.New("Extra content at the end of the document")
			}
			top := stack[len(stack)-1]
			if name := qualifiedName(t.Name); name != top.name {
				return errors.Newf("Opening and ending tag mismatch: %s line %d and %s", top.name, top.line, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				if roots == 0 {
					return errors.New("Start tag expected, '<' not found")
				}
				return errors.New("Extra content at the end of the document")
			}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return errors.Newf("Premature end of data in tag %s line %d", top.name, top.line)
	}
	if roots == 0 {
		return errors.New("Start tag expected, '<' not found")
	}
	return nil
}

func translateSyntaxError(err error, stack []openTag) error {
	var se *xml.SyntaxError
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case strings.HasPrefix(se.Msg, "invalid XML name"),
		strings.HasPrefix(se.Msg, "expected element name"):
		return errors.New("StartTag: invalid element name")
	case se.Msg == "unexpected EOF" && len(stack) > 0:
		top := stack[len(stack)-1]
		return errors.Newf("Premature end of data in tag %s line %d", top.name, top.line)
	default:
		return errors.New(se.Msg)
	}
}
