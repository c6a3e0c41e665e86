/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLaunchPathFromArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
		ok   bool
	}{
		{"plain", []string{"map.neb"}, "map.neb", true},
		{"quoted", []string{`"C:\Users\me\My Map.neb"`}, `C:\Users\me\My Map.neb`, true},
		{"upper ext", []string{"--flag", "/tmp/A.NEB"}, "/tmp/A.NEB", true},
		{"flag only", []string{"--open=x.neb"}, "", false},
		{"other ext", []string{"notes.txt"}, "", false},
		{"first wins", []string{"a.neb", "b.neb"}, "a.neb", true},
		{"none", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LaunchPathFromArgs(tc.args, ".neb")
			if got != tc.want || ok != tc.ok {
				t.Fatalf("LaunchPathFromArgs(%q) = %q,%v want %q,%v", tc.args, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestOSShellReadWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.neb")
	s := NewOSShell([]string{p}, ".neb")
	if lp, ok := s.LaunchPath(); !ok || lp != p {
		t.Fatalf("launch path = %q,%v", lp, ok)
	}
	if s.FileExists(p) {
		t.Fatalf("file should not exist yet")
	}
	if err := s.WriteFile(p, []byte("[]")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !s.FileExists(p) || s.FileExists(dir) {
		t.Fatalf("FileExists wrong for file/dir")
	}
	b, err := s.ReadFile(p)
	if err != nil || string(b) != "[]" {
		t.Fatalf("read = %q, %v", b, err)
	}
	_, err = s.ReadFile(filepath.Join(dir, "missing.neb"))
	var ioe *IOError
	if !errors.As(err, &ioe) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected IOError wrapping ErrNotExist, got %v", err)
	}
	nested := filepath.Join(dir, "sub", "x.neb")
	if err := s.WriteFile(nested, []byte("[1]")); err != nil {
		t.Fatalf("write into new dir: %v", err)
	}
	if err := s.WriteFile(filepath.Join(p, "x.neb"), nil); err == nil {
		t.Fatalf("expected error writing below a file")
	}
	if err := s.WriteFile(p, []byte("[2]")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	names, err := s.List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "doc.neb" {
		t.Fatalf("list = %v, want only doc.neb (no temp files, no dirs)", names)
	}
	if _, err := s.List(filepath.Join(dir, "missing")); !errors.As(err, &ioe) {
		t.Fatalf("expected IOError listing missing dir, got %v", err)
	}
	_ = os.Remove(p)
}

func TestOSShellOpenRequests(t *testing.T) {
	s := NewOSShell(nil, ".neb")
	if _, ok := s.LaunchPath(); ok {
		t.Fatalf("no launch path expected")
	}
	if !s.RequestOpen("second.neb") {
		t.Fatalf("request should be queued")
	}
	if got := <-s.FileOpenRequests(); got != "second.neb" {
		t.Fatalf("got %q", got)
	}
	for i := 0; i < 8; i++ {
		s.RequestOpen("x.neb")
	}
	if s.RequestOpen("overflow.neb") {
		t.Fatalf("full queue should refuse")
	}
	s.Close()
	s.Close()
	if s.RequestOpen("late.neb") {
		t.Fatalf("closed shell should refuse")
	}
}

func TestMemShell(t *testing.T) {
	m := NewMemShell()
	if err := m.WriteFile("a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if !m.FileExists("a") {
		t.Fatal("expected a to exist")
	}
	_ = m.WriteFile("/d/b.neb", nil)
	_ = m.WriteFile("/d/a.neb", nil)
	_ = m.WriteFile("/d/sub/c.neb", nil)
	if names, err := m.List("/d/"); err != nil || len(names) != 2 || names[0] != "a.neb" || names[1] != "b.neb" {
		t.Fatalf("List = %v, %v", names, err)
	}
	if _, err := m.List("/empty"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	m.FailWrites = true
	if err := m.WriteFile("b", nil); err == nil {
		t.Fatal("expected write failure")
	}
	if _, err := m.ReadFile("b"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}
