/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mindmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(vs []Violation) []ViolationKind {
	var out []ViolationKind
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidate(t *testing.T) {
	ok := []Node{
		{ID: "r", IsRoot: true, Width: 150, Height: 60},
		{ID: "a", ParentID: "r", Width: 120, Height: 45},
	}
	tests := []struct {
		name  string
		nodes []Node
		want  []ViolationKind
	}{
		{"valid", ok, nil},
		{"no root", []Node{{ID: "a", Width: 100, Height: 50}}, []ViolationKind{NoRoot, DanglingParent}},
		{"two roots", []Node{{ID: "a", IsRoot: true, Width: 100, Height: 50}, {ID: "b", IsRoot: true, Width: 100, Height: 50}}, []ViolationKind{MultipleRoots}},
		{"dangling", append(append([]Node{}, ok...), Node{ID: "x", ParentID: "ghost", Width: 100, Height: 50}), []ViolationKind{DanglingParent}},
		{"cycle", append(append([]Node{}, ok...),
			Node{ID: "x", ParentID: "y", Width: 100, Height: 50},
			Node{ID: "y", ParentID: "x", Width: 100, Height: 50}), []ViolationKind{Cycle}},
		{"undersized", []Node{{ID: "r", IsRoot: true, Width: 10, Height: 60}}, []ViolationKind{Undersized}},
		{"duplicate", append(append([]Node{}, ok...), Node{ID: "a", ParentID: "r", Width: 100, Height: 50}), []ViolationKind{DuplicateID}},
		{"root with parent", []Node{{ID: "r", IsRoot: true, ParentID: "r", Width: 100, Height: 50}}, []ViolationKind{RootHasParent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Validate(tt.nodes)))
		})
	}
}

func TestRepairProducesValidForest(t *testing.T) {
	broken := []Node{
		{ID: "a", ParentID: "ghost"},
		{ID: "r", IsRoot: true, Width: 150, Height: 60},
		{ID: "r2", IsRoot: true, Width: 150, Height: 60},
		{ID: "x", ParentID: "y", Width: 100, Height: 50},
		{ID: "y", ParentID: "x", Width: 100, Height: 50},
		{ID: "x", ParentID: "r", Width: 100, Height: 50},
		{ID: "", ParentID: "r"},
		{ID: "tiny", ParentID: "r", Width: 5, Height: 5},
	}
	fixed, found := Repair(broken)
	require.NotEmpty(t, found)
	require.Empty(t, Validate(fixed))
	require.Len(t, fixed, 6)

	byID := map[string]Node{}
	for _, n := range fixed {
		byID[n.ID] = n
	}
	assert.True(t, byID["r"].IsRoot)
	assert.False(t, byID["r2"].IsRoot)
	assert.Equal(t, "r", byID["r2"].ParentID)
	assert.Equal(t, "r", byID["a"].ParentID)
	assert.Equal(t, ChildWidth, byID["a"].Width, "missing size takes the child default")
	assert.Equal(t, MinWidth, byID["tiny"].Width)
	assert.Equal(t, MinHeight, byID["tiny"].Height)

	s := New()
	require.NoError(t, s.ReplaceAll(fixed))
	assert.Len(t, s.Descendants("r"), 5)
}

func TestRepairPromotesFirstNodeWhenNoRoot(t *testing.T) {
	fixed, _ := Repair([]Node{{ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}})
	require.Empty(t, Validate(fixed))
	assert.True(t, fixed[0].IsRoot)
	assert.Equal(t, "a", fixed[1].ParentID)

	fixed, _ = Repair(nil)
	require.Len(t, fixed, 1)
	assert.True(t, fixed[0].IsRoot)
	assert.Equal(t, RootText, fixed[0].Text)
}

func TestViolationString(t *testing.T) {
	assert.Equal(t, "no_root: none", Violation{Kind: NoRoot, Detail: "none"}.String())
	assert.Equal(t, `cycle (node "x"): loop`, Violation{Kind: Cycle, NodeID: "x", Detail: "loop"}.String())
}
