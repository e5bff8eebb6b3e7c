package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/gll/cst"
	"github.com/dhamidi/gll/diag"
)

type CSTJSONEncoder struct {
	w io.Writer
}

func NewCSTJSONEncoder(w io.Writer) *CSTJSONEncoder {
	return &CSTJSONEncoder{w: w}
}

func (e *CSTJSONEncoder) Encode(node *cst.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *CSTJSONEncoder) MarshalText(node *cst.Node) ([]byte, error) {
	return json.MarshalIndent(nodeToJSON(node), "", "  ")
}

type cstJSONNode struct {
	Kind     string         `json:"kind"`
	Rule     string         `json:"rule,omitempty"`
	Span     *cstJSONSpan   `json:"span,omitempty"`
	Token    string         `json:"token,omitempty"`
	Children []*cstJSONNode `json:"children,omitempty"`
}

type cstJSONSpan struct {
	Start cstJSONPosition `json:"start"`
	End   cstJSONPosition `json:"end"`
}

type cstJSONPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func nodeToJSON(n *cst.Node) *cstJSONNode {
	jn := &cstJSONNode{
		Kind: n.Kind,
		Rule: n.Rule,
	}

	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		jn.Span = &cstJSONSpan{
			Start: cstJSONPosition{Line: n.Span.Start.Line, Column: n.Span.Start.Column},
			End:   cstJSONPosition{Line: n.Span.End.Line, Column: n.Span.End.Column},
		}
	}

	if n.Token != nil {
		jn.Token = n.Token.Literal
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*cstJSONNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = nodeToJSON(child)
		}
	}

	return jn
}

// ErrorsJSONEncoder writes diagnostics as a JSON array.
type ErrorsJSONEncoder struct {
	w io.Writer
}

func NewErrorsJSONEncoder(w io.Writer) *ErrorsJSONEncoder {
	return &ErrorsJSONEncoder{w: w}
}

type errorJSON struct {
	Kind     string   `json:"kind"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
	Got      string   `json:"got,omitempty"`
	Expected []string `json:"expected,omitempty"`
}

func (e *ErrorsJSONEncoder) Encode(errs []*diag.Error) error {
	out := make([]errorJSON, len(errs))
	for i, d := range errs {
		out[i] = errorJSON{
			Kind:    d.Kind.String(),
			Line:    d.Line(),
			Column:  d.Column(),
			Message: d.Message,
		}
		if d.Token != nil {
			out[i].Got = d.Token.Literal
		}
		for _, k := range d.Expected {
			out[i].Expected = append(out[i].Expected, string(k))
		}
	}
	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}
