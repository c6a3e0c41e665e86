/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
	if c := r.Center(); c != (Pt{60, 45}) {
		t.Fatalf("unexpected center: %+v", c)
	}
}

func TestRectUnion(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(20, -5, 5, 5))
	if u != R(0, -5, 25, 15) {
		t.Fatalf("unexpected union: %+v", u)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	r := m.ApplyRect(R(1, 1, 4, 2))
	if r != R(12, 8, 8, 6) {
		t.Fatalf("unexpected rect transform: %+v", r)
	}
}

func TestAffineInvertRoundTrip(t *testing.T) {
	m := Translate(-120, 35).Mul(Scale(1.7, 1.7))
	q := m.Invert().Apply(m.Apply(Pt{42, -17}))
	if math.Abs(q.X-42) > 1e-9 || math.Abs(q.Y+17) > 1e-9 {
		t.Fatalf("invert round trip mismatch: %+v", q)
	}
	if (Affine2D{}).Invert() != Identity {
		t.Fatalf("singular matrix should invert to identity")
	}
}

func TestFloatRound(t *testing.T) {
	if got := FloatRound(1.23456, 2); got != 1.23 {
		t.Fatalf("FloatRound = %v", got)
	}
	if got := FloatRound(1.5, -1); got != 1.5 {
		t.Fatalf("negative places should be identity, got %v", got)
	}
}
