/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mindmap

import "fmt"

// ViolationKind names a broken forest invariant.
type ViolationKind string

const (
	NoRoot         ViolationKind = "no_root"
	MultipleRoots  ViolationKind = "multiple_roots"
	RootHasParent  ViolationKind = "root_has_parent"
	EmptyID        ViolationKind = "empty_id"
	DuplicateID    ViolationKind = "duplicate_id"
	DanglingParent ViolationKind = "dangling_parent"
	Cycle          ViolationKind = "cycle"
	Undersized     ViolationKind = "undersized"
)

// Violation is one problem found in a node list.
type Violation struct {
	Kind   ViolationKind
	NodeID string
	Detail string
}

func (v Violation) String() string {
	if v.NodeID == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
	}
	return fmt.Sprintf("%s (node %q): %s", v.Kind, v.NodeID, v.Detail)
}

// Validate checks nodes against the forest invariant: exactly one root
// without a parent, unique non-empty ids, resolvable parents, no cycles and
// minimum sizes. An empty result means the list is a valid document.
func Validate(nodes []Node) []Violation {
	var out []Violation
	byID := make(map[string]Node, len(nodes))
	roots := 0
	for _, n := range nodes {
		if n.ID == "" {
			out = append(out, Violation{Kind: EmptyID, Detail: "node without id"})
			continue
		}
		if _, dup := byID[n.ID]; dup {
			out = append(out, Violation{Kind: DuplicateID, NodeID: n.ID, Detail: "id used more than once"})
			continue
		}
		byID[n.ID] = n
		if n.IsRoot {
			roots++
			if n.ParentID != "" {
				out = append(out, Violation{Kind: RootHasParent, NodeID: n.ID, Detail: "root references parent " + n.ParentID})
			}
		}
		if n.Width < MinWidth || n.Height < MinHeight {
			out = append(out, Violation{Kind: Undersized, NodeID: n.ID,
				Detail: fmt.Sprintf("%gx%g below %gx%g", n.Width, n.Height, MinWidth, MinHeight)})
		}
	}
	switch {
	case roots == 0:
		out = append(out, Violation{Kind: NoRoot, Detail: "no node is marked as root"})
	case roots > 1:
		out = append(out, Violation{Kind: MultipleRoots, Detail: fmt.Sprintf("%d nodes are marked as root", roots)})
	}
	for _, n := range nodes {
		if n.ID == "" || n.IsRoot {
			continue
		}
		if n.ParentID == "" {
			out = append(out, Violation{Kind: DanglingParent, NodeID: n.ID, Detail: "non-root node without parent"})
			continue
		}
		if _, ok := byID[n.ParentID]; !ok {
			out = append(out, Violation{Kind: DanglingParent, NodeID: n.ID, Detail: "parent " + n.ParentID + " does not exist"})
		}
	}
	for _, id := range cycleMembers(nodes, byID) {
		out = append(out, Violation{Kind: Cycle, NodeID: id, Detail: "parent chain loops back"})
	}
	return out
}

// cycleMembers returns, in document order, the first node of each parent
// cycle discovered.
func cycleMembers(nodes []Node, byID map[string]Node) []string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(byID))
	var out []string
	for _, n := range nodes {
		if n.ID == "" || state[n.ID] != unvisited {
			continue
		}
		var path []string
		cur := n.ID
		for {
			st := state[cur]
			if st == onPath {
				out = append(out, cur)
				break
			}
			if st == done {
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			p, ok := byID[cur]
			if !ok || p.IsRoot || p.ParentID == "" {
				break
			}
			if _, ok := byID[p.ParentID]; !ok {
				break
			}
			cur = p.ParentID
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return out
}

// Repair returns a valid copy of nodes together with the violations it
// fixed. Nodes without id and later duplicates are dropped; the first root
// wins and other roots become its children; dangling parents and cycles are
// reattached to the root; sizes are raised to the minimums (a missing size
// takes the default for the node kind). An empty list yields a fresh root.
func Repair(nodes []Node) ([]Node, []Violation) {
	found := Validate(nodes)
	out := make([]Node, 0, len(nodes))
	seen := map[string]struct{}{}
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		n.IsNew = false
		out = append(out, n)
	}

	rootIdx := -1
	for i := range out {
		if out[i].IsRoot {
			rootIdx = i
			break
		}
	}
	if rootIdx < 0 {
		if len(out) == 0 {
			out = append(out, Node{ID: "root", Text: RootText, X: RootX, Y: RootY,
				Width: RootWidth, Height: RootHeight, IsRoot: true, Color: RootColor})
		}
		rootIdx = 0
		out[0].IsRoot = true
	}
	rootID := out[rootIdx].ID
	out[rootIdx].ParentID = ""

	for i := range out {
		n := &out[i]
		if i != rootIdx && n.IsRoot {
			n.IsRoot = false
			n.ParentID = rootID
		}
		if i != rootIdx {
			if _, ok := seen[n.ParentID]; !ok || n.ParentID == n.ID {
				n.ParentID = rootID
			}
		}
		if n.Width == 0 && n.Height == 0 {
			if n.IsRoot {
				n.Width, n.Height = RootWidth, RootHeight
			} else {
				n.Width, n.Height = ChildWidth, ChildHeight
			}
		}
		n.Width, n.Height = ClampSize(n.Width, n.Height)
	}

	// Anything not reachable from the root now sits on a cycle.
	reach := reachable(out, rootID)
	for i := range out {
		if _, ok := reach[out[i].ID]; ok {
			continue
		}
		out[i].ParentID = rootID
		reach = reachable(out, rootID)
	}
	return out, found
}

func reachable(nodes []Node, rootID string) map[string]struct{} {
	kids := map[string][]string{}
	for _, n := range nodes {
		if n.ParentID != "" {
			kids[n.ParentID] = append(kids[n.ParentID], n.ID)
		}
	}
	seen := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, k := range kids[cur] {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				queue = append(queue, k)
			}
		}
	}
	return seen
}
