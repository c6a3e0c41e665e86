/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mindmap

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	applog "nebula/internal/log"
)

var (
	ErrEmptyDocument = errors.New("mindmap: document has no nodes")
	ErrNoRoot        = errors.New("mindmap: document has no root node")
	ErrDuplicateID   = errors.New("mindmap: duplicate node id")
)

// Store is the ordered node collection. It keeps an incremental index from
// parent id to child ids so subtree operations are a single traversal.
// A Store is not safe for concurrent use.
type Store struct {
	order    []string
	byID     map[string]*Node
	children map[string][]string
	issued   map[string]struct{}
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid generator. Generated ids that were
// already issued in this session are discarded and regenerated.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New returns a store holding only a default root node.
func New(opts ...Option) *Store {
	s := &Store{
		byID:     map[string]*Node{},
		children: map[string][]string{},
		issued:   map[string]struct{}{},
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.insert(&Node{
		ID:     s.freshID(),
		Text:   RootText,
		X:      RootX,
		Y:      RootY,
		Width:  RootWidth,
		Height: RootHeight,
		IsRoot: true,
		Color:  RootColor,
		IsNew:  true,
	})
	return s
}

func (s *Store) freshID() string {
	for {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, used := s.issued[id]; used {
			continue
		}
		if _, live := s.byID[id]; live {
			continue
		}
		s.issued[id] = struct{}{}
		return id
	}
}

func (s *Store) insert(n *Node) {
	s.order = append(s.order, n.ID)
	s.byID[n.ID] = n
	s.issued[n.ID] = struct{}{}
	if n.ParentID != "" {
		s.children[n.ParentID] = append(s.children[n.ParentID], n.ID)
	}
}

// AddNode creates a node with a fresh id, the default size and color for
// its kind, and IsNew set. A non-root node needs a live parent and a root
// can only be added to a store without one; otherwise nil is returned.
func (s *Store) AddNode(text string, x, y float64, parentID string, isRoot bool) *Node {
	if isRoot {
		if _, ok := s.rootNode(); ok {
			return nil
		}
		parentID = ""
	} else if _, ok := s.byID[parentID]; !ok {
		return nil
	}
	n := &Node{
		ID:       s.freshID(),
		Text:     text,
		X:        x,
		Y:        y,
		ParentID: parentID,
		IsRoot:   isRoot,
		IsNew:    true,
	}
	if isRoot {
		n.Width, n.Height, n.Color = RootWidth, RootHeight, RootColor
	} else {
		n.Width, n.Height, n.Color = ChildWidth, ChildHeight, ChildColor
	}
	s.insert(n)
	applog.WithComponent("store").Debug("node added", "id", n.ID, "parent", parentID)
	cp := *n
	return &cp
}

// DeleteNode removes id and its whole subtree in one step. Deleting the root
// or an absent id is a no-op. The removed ids are returned, id first.
func (s *Store) DeleteNode(id string) []string {
	n, ok := s.byID[id]
	if !ok || n.IsRoot {
		return nil
	}
	removed := append([]string{id}, s.Descendants(id)...)
	gone := make(map[string]struct{}, len(removed))
	for _, rid := range removed {
		gone[rid] = struct{}{}
		delete(s.byID, rid)
		delete(s.children, rid)
	}
	if n.ParentID != "" {
		s.children[n.ParentID] = without(s.children[n.ParentID], id)
		if len(s.children[n.ParentID]) == 0 {
			delete(s.children, n.ParentID)
		}
	}
	kept := s.order[:0]
	for _, oid := range s.order {
		if _, g := gone[oid]; !g {
			kept = append(kept, oid)
			if r := s.byID[oid]; r.IsRoot {
				if _, orphan := gone[r.ParentID]; orphan {
					r.ParentID = ""
				}
			}
		}
	}
	s.order = kept
	applog.WithComponent("store").Debug("subtree deleted", "id", id, "removed", len(removed))
	return removed
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// UpdateNode applies p to the node. Sizes are clamped to the minimums.
// It reports whether the node exists.
func (s *Store) UpdateNode(id string, p Patch) bool {
	n, ok := s.byID[id]
	if !ok {
		return false
	}
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Image != nil {
		n.Image = *p.Image
	}
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
	if p.Width != nil {
		n.Width = *p.Width
	}
	if p.Height != nil {
		n.Height = *p.Height
	}
	if p.Width != nil || p.Height != nil {
		n.Width, n.Height = ClampSize(n.Width, n.Height)
	}
	return true
}

// MarkRendered clears the transient IsNew flag.
func (s *Store) MarkRendered(id string) {
	if n, ok := s.byID[id]; ok {
		n.IsNew = false
	}
}

// ReplaceAll swaps the whole store for nodes (no merge). The input is taken
// as-is apart from IsNew, which is cleared; it must contain a root and
// unique ids. Forest checks belong to Validate and Repair.
func (s *Store) ReplaceAll(nodes []Node) error {
	if len(nodes) == 0 {
		return ErrEmptyDocument
	}
	seen := make(map[string]struct{}, len(nodes))
	hasRoot := false
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = struct{}{}
		hasRoot = hasRoot || n.IsRoot
	}
	if !hasRoot {
		return ErrNoRoot
	}
	s.order = nil
	s.byID = make(map[string]*Node, len(nodes))
	s.children = map[string][]string{}
	for _, n := range nodes {
		cp := n
		cp.IsNew = false
		s.insert(&cp)
	}
	applog.WithComponent("store").Info("store replaced", "nodes", len(nodes))
	return nil
}

// Clear resets the store to only its root node.
func (s *Store) Clear() {
	root, ok := s.rootNode()
	if !ok {
		return
	}
	s.order = []string{root.ID}
	s.byID = map[string]*Node{root.ID: root}
	s.children = map[string][]string{}
}

func (s *Store) rootNode() (*Node, bool) {
	for _, id := range s.order {
		if n := s.byID[id]; n.IsRoot {
			return n, true
		}
	}
	return nil, false
}

// Root returns the root node.
func (s *Store) Root() Node {
	if n, ok := s.rootNode(); ok {
		return *n
	}
	return Node{}
}

// Get returns a copy of the node with id.
func (s *Store) Get(id string) (Node, bool) {
	n, ok := s.byID[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether id is live.
func (s *Store) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Nodes returns copies of all nodes in document order.
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Children returns the direct child ids of id in insertion order.
func (s *Store) Children(id string) []string {
	return append([]string(nil), s.children[id]...)
}

// Descendants returns every id reachable below id, breadth first. Cycles in
// tolerated documents are visited once and the walk never enters a root.
func (s *Store) Descendants(id string) []string {
	var out []string
	visited := map[string]struct{}{id: {}}
	queue := append([]string(nil), s.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		if n, ok := s.byID[cur]; ok && n.IsRoot {
			continue
		}
		out = append(out, cur)
		queue = append(queue, s.children[cur]...)
	}
	return out
}

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.order) }
