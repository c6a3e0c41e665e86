/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"nebula/internal/mindmap"
)

func randomStore(seed int64) *mindmap.Store {
	r := rand.New(rand.NewSource(seed))
	s := mindmap.New()
	for i := 0; i < 60; i++ {
		nodes := s.Nodes()
		pick := nodes[r.Intn(len(nodes))]
		if r.Intn(4) == 0 {
			s.DeleteNode(pick.ID)
			continue
		}
		x, y := mindmap.ChildPosition(pick, mindmap.RandomAngle(r), mindmap.ChildDistance)
		n := s.AddNode("idea "+pick.ID[:4], x, y, pick.ID, false)
		if r.Intn(3) == 0 {
			s.UpdateNode(n.ID, mindmap.Patch{Width: mindmap.Ptr(80 + r.Float64()*200), Color: mindmap.Ptr("#10b981"),
				Image: mindmap.Ptr("data:image/png;base64,AAAA")})
		}
	}
	return s
}

func clearNew(nodes []mindmap.Node) []mindmap.Node {
	out := append([]mindmap.Node(nil), nodes...)
	for i := range out {
		out[i].IsNew = false
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		want := clearNew(randomStore(seed).Nodes())
		data, err := Encode(want)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		for _, p := range []Policy{Repair, Reject, Tolerate} {
			doc, err := Decode(data, p)
			if err != nil {
				t.Fatalf("seed %d policy %s: decode: %v", seed, p, err)
			}
			if len(doc.Violations) != 0 {
				t.Fatalf("unexpected violations: %v", doc.Violations)
			}
			if !reflect.DeepEqual(want, doc.Nodes) {
				t.Fatalf("seed %d policy %s: round trip mismatch", seed, p)
			}
		}
	}
}

func TestEncodeWireShape(t *testing.T) {
	s := mindmap.New()
	s.AddNode("child", 1, 2, s.Root().ID, false)
	data, err := Encode(s.Nodes())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "isNew") {
		t.Fatalf("isNew must not be written: %s", data)
	}
	if strings.Contains(string(data), `"image"`) {
		t.Fatalf("empty image must be omitted: %s", data)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("not a JSON array: %v", err)
	}
	if v, ok := raw[0]["parentId"]; !ok || v != nil {
		t.Fatalf("root parentId should be null, got %v (present=%v)", v, ok)
	}
	if raw[1]["parentId"] != s.Root().ID {
		t.Fatalf("child parentId = %v", raw[1]["parentId"])
	}
	for _, k := range []string{"id", "text", "x", "y", "width", "height", "isRoot", "color"} {
		if _, ok := raw[1][k]; !ok {
			t.Fatalf("missing field %q", k)
		}
	}
}

func TestDecodeAcceptsLegacyDocument(t *testing.T) {
	// As written by older builds: numeric-string ids and a leftover isNew.
	legacy := `[{"id":"1700000000000","text":"Central Topic","x":5000,"y":5000,"width":150,"height":60,"parentId":null,"isRoot":true,"color":"var(--accent-primary)"},
{"id":"1700000000001","text":"New Idea","x":5180,"y":5000,"width":120,"height":45,"parentId":"1700000000000","isRoot":false,"color":"var(--node-bg)","isNew":true,"extra":1}]`
	doc, err := Decode([]byte(legacy), Reject)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if len(doc.Nodes) != 2 || doc.Nodes[1].ParentID != "1700000000000" || doc.Nodes[1].IsNew {
		t.Fatalf("unexpected nodes: %+v", doc.Nodes)
	}
}

func TestDecodeParseErrors(t *testing.T) {
	cases := map[string]struct {
		in   string
		want error
	}{
		"not json":      {`{ this is not json`, ErrMalformed},
		"object":        {`{"id":"1"}`, ErrSchema},
		"missing text":  {`[{"id":"1","x":0,"y":0}]`, ErrSchema},
		"string coords": {`[{"id":"1","text":"a","x":"0","y":0}]`, ErrSchema},
		"bad parent":    {`[{"id":"1","text":"a","x":0,"y":0,"parentId":5}]`, ErrSchema},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.in), Repair)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

const cyclic = `[
{"id":"r","text":"root","x":0,"y":0,"width":150,"height":60,"parentId":null,"isRoot":true,"color":"#fff"},
{"id":"a","text":"a","x":0,"y":0,"width":120,"height":45,"parentId":"b","isRoot":false,"color":"#fff"},
{"id":"b","text":"b","x":0,"y":0,"width":120,"height":45,"parentId":"a","isRoot":false,"color":"#fff"},
{"id":"c","text":"c","x":0,"y":0,"width":120,"height":45,"parentId":"ghost","isRoot":false,"color":"#fff"}]`

func TestDecodePolicies(t *testing.T) {
	_, err := Decode([]byte(cyclic), Reject)
	var ve *ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("reject: expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 2 {
		t.Fatalf("expected dangling + cycle, got %v", ve.Violations)
	}

	doc, err := Decode([]byte(cyclic), Tolerate)
	if err != nil {
		t.Fatalf("tolerate: %v", err)
	}
	if len(doc.Violations) != 2 || doc.Nodes[3].ParentID != "ghost" {
		t.Fatalf("tolerate should keep nodes as-is: %+v", doc)
	}

	doc, err = Decode([]byte(cyclic), Repair)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if vs := mindmap.Validate(doc.Nodes); len(vs) != 0 {
		t.Fatalf("repaired document still invalid: %v", vs)
	}
	if len(doc.Violations) != 2 {
		t.Fatalf("repair should report what it fixed: %v", doc.Violations)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": Repair, "REJECT": Reject, " tolerate ": Tolerate, "repair": Repair} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
