/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"sort"

	"nebula/internal/vector"
)

// MemoryElement records the last state applied to it.
type MemoryElement struct {
	ID       string
	State    ElementState
	Updates  int
	Appeared bool
	// Content is the displayed text. It is frozen while the element is
	// being edited so an in-progress edit is not overwritten.
	Content string
}

func (e *MemoryElement) Update(st ElementState) {
	e.Updates++
	if st.Appearing {
		e.Appeared = true
	}
	if !(st.Editing && e.State.Editing) {
		e.Content = st.Text
	}
	e.State = st
}

// MemorySurface is a display-less Surface.
type MemorySurface struct {
	Elements   map[string]*MemoryElement
	Transform  vector.Affine2D
	Connectors []Connector
	Created    int
	Removed    int
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{Elements: map[string]*MemoryElement{}, Transform: vector.Identity}
}

func (s *MemorySurface) CreateElement(id string) Element {
	el := &MemoryElement{ID: id}
	s.Elements[id] = el
	s.Created++
	return el
}

func (s *MemorySurface) RemoveElement(id string) {
	if _, ok := s.Elements[id]; ok {
		delete(s.Elements, id)
		s.Removed++
	}
}

func (s *MemorySurface) SetTransform(m vector.Affine2D) { s.Transform = m }

func (s *MemorySurface) DrawConnectors(cs []Connector) {
	s.Connectors = append(s.Connectors[:0], cs...)
}

// IDs returns the ids of live elements, sorted.
func (s *MemorySurface) IDs() []string {
	out := make([]string, 0, len(s.Elements))
	for id := range s.Elements {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
