/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"nebula/internal/mindmap"
)

//go:embed document.schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("storage: embedded schema: %v", err))
	}
	return s
}

// Policy decides what Decode does with a document that parses but breaks
// the forest invariant.
type Policy string

const (
	// Repair fixes the node list (see mindmap.Repair) and loads it.
	Repair Policy = "repair"
	// Reject refuses the document with a *ValidationError.
	Reject Policy = "reject"
	// Tolerate loads the nodes as they are.
	Tolerate Policy = "tolerate"
)

// ParsePolicy maps a config value to a Policy. Empty means Repair.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Repair, nil
	case Repair, Reject, Tolerate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown validation policy %q (want repair, reject or tolerate)", s)
	}
}

// ParseError reports content that is not a well-formed document. Nothing
// is loaded when it is returned.
type ParseError struct {
	Err     error
	Details []string
}

func (e *ParseError) Error() string {
	msg := "parse document: " + e.Err.Error()
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrMalformed       = errors.New("malformed JSON")
	ErrSchema          = errors.New("document does not match schema")
	ErrInvalidDocument = errors.New("document violates the forest invariant")
)

// ValidationError lists forest violations of a rejected document.
type ValidationError struct {
	Violations []mindmap.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return ErrInvalidDocument.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

type wireNode struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ParentID *string `json:"parentId"`
	IsRoot   bool    `json:"isRoot"`
	Color    string  `json:"color"`
	Image    string  `json:"image,omitempty"`
}

// Document is the result of Decode. Violations lists what was found in the
// input: repaired under Repair, ignored under Tolerate.
type Document struct {
	Nodes      []mindmap.Node
	Violations []mindmap.Violation
}

// Encode serializes nodes as an indented JSON array. IsNew is never written
// and the root's parentId is null.
func Encode(nodes []mindmap.Node) ([]byte, error) {
	out := make([]wireNode, 0, len(nodes))
	for _, n := range nodes {
		w := wireNode{
			ID: n.ID, Text: n.Text, X: n.X, Y: n.Y, Width: n.Width, Height: n.Height,
			IsRoot: n.IsRoot, Color: n.Color, Image: n.Image,
		}
		if n.ParentID != "" {
			p := n.ParentID
			w.ParentID = &p
		}
		out = append(out, w)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a document and applies policy. Malformed or off-schema
// input yields *ParseError; a Reject policy with violations yields
// *ValidationError.
func Decode(data []byte, policy Policy) (Document, error) {
	if !json.Valid(data) {
		return Document{}, &ParseError{Err: ErrMalformed}
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Document{}, &ParseError{Err: fmt.Errorf("%w: %v", ErrSchema, err)}
	}
	if !res.Valid() {
		pe := &ParseError{Err: ErrSchema}
		for _, re := range res.Errors() {
			pe.Details = append(pe.Details, re.String())
		}
		return Document{}, pe
	}
	var wire []wireNode
	if err := json.Unmarshal(data, &wire); err != nil {
		return Document{}, &ParseError{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	nodes := make([]mindmap.Node, 0, len(wire))
	for _, w := range wire {
		n := mindmap.Node{
			ID: w.ID, Text: w.Text, X: w.X, Y: w.Y, Width: w.Width, Height: w.Height,
			IsRoot: w.IsRoot, Color: w.Color, Image: w.Image,
		}
		if w.ParentID != nil {
			n.ParentID = *w.ParentID
		}
		nodes = append(nodes, n)
	}

	switch policy {
	case Reject:
		if vs := mindmap.Validate(nodes); len(vs) > 0 {
			return Document{}, &ValidationError{Violations: vs}
		}
		return Document{Nodes: nodes}, nil
	case Tolerate:
		return Document{Nodes: nodes, Violations: mindmap.Validate(nodes)}, nil
	default:
		fixed, vs := mindmap.Repair(nodes)
		return Document{Nodes: fixed, Violations: vs}, nil
	}
}
