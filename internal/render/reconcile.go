/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	applog "nebula/internal/log"
	"nebula/internal/vector"
)

// Element is a host-side node representation that is updated in place.
type Element interface {
	Update(ElementState)
}

// Surface is implemented by hosts that display frames.
type Surface interface {
	CreateElement(id string) Element
	RemoveElement(id string)
	SetTransform(m vector.Affine2D)
	DrawConnectors(cs []Connector)
}

// Reconciler keeps a persistent set of elements keyed by node id and
// applies frames to a Surface without recreating live elements.
type Reconciler struct {
	surface  Surface
	elements map[string]Element
}

// NewReconciler binds a reconciler to surface.
func NewReconciler(surface Surface) *Reconciler {
	return &Reconciler{surface: surface, elements: map[string]Element{}}
}

// Result reports what one Apply pass changed.
type Result struct {
	Created []string
	Removed []string
	Updated int
	// Appeared lists created elements that played their entrance transition.
	Appeared []string
}

// Apply reconciles f onto the surface: removes elements whose id vanished,
// creates elements for new ids, updates the rest in place and redraws all
// connectors. Appearing is only honored on the pass that creates the element.
func (r *Reconciler) Apply(f Frame) Result {
	var res Result
	live := make(map[string]struct{}, len(f.Elements))
	for _, st := range f.Elements {
		live[st.ID] = struct{}{}
	}
	for id := range r.elements {
		if _, ok := live[id]; !ok {
			r.surface.RemoveElement(id)
			delete(r.elements, id)
			res.Removed = append(res.Removed, id)
		}
	}
	r.surface.SetTransform(f.Transform)
	for _, st := range f.Elements {
		el, ok := r.elements[st.ID]
		if !ok {
			el = r.surface.CreateElement(st.ID)
			r.elements[st.ID] = el
			res.Created = append(res.Created, st.ID)
			if st.Appearing {
				res.Appeared = append(res.Appeared, st.ID)
			}
		} else {
			st.Appearing = false
			res.Updated++
		}
		el.Update(st)
	}
	r.surface.DrawConnectors(f.Connectors)
	if len(res.Created) > 0 || len(res.Removed) > 0 {
		applog.WithComponent("render").Debug("reconciled",
			"created", len(res.Created), "removed", len(res.Removed), "updated", res.Updated)
	}
	return res
}

// Reset drops every element from the surface; the next Apply recreates them.
func (r *Reconciler) Reset() {
	for id := range r.elements {
		r.surface.RemoveElement(id)
	}
	r.elements = map[string]Element{}
}

// Len returns the number of live elements.
func (r *Reconciler) Len() int { return len(r.elements) }
