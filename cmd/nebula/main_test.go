/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nebula/internal/storage"
	"nebula/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NEB_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewInfoValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas")
	if _, err := execute(t, "new", path); err != nil {
		t.Fatalf("new: %v", err)
	}
	path += storage.Extension
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if _, err := execute(t, "new", path); err == nil {
		t.Fatal("new should refuse to overwrite")
	}
	if _, err := execute(t, "new", "--force", path); err != nil {
		t.Fatalf("new --force: %v", err)
	}

	out, err := execute(t, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "Central Topic") || !strings.Contains(out, "Nodes") {
		t.Fatalf("info output: %s", out)
	}

	out, err = execute(t, "validate", path)
	if err != nil || !strings.Contains(out, "OK: 1 nodes") {
		t.Fatalf("validate: %v %s", err, out)
	}
}

const cyclicDoc = `[
 {"id":"r","text":"Root","x":0,"y":0,"width":150,"height":60,"parentId":null,"isRoot":true,"color":""},
 {"id":"a","text":"A","x":10,"y":10,"width":120,"height":45,"parentId":"b","isRoot":false,"color":""},
 {"id":"b","text":"B","x":20,"y":20,"width":120,"height":45,"parentId":"a","isRoot":false,"color":""}
]`

func TestValidateReportsViolations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cyclic.neb")
	if err := os.WriteFile(path, []byte(cyclicDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "validate", path)
	if !errors.Is(err, errViolations) {
		t.Fatalf("want violations error, got %v", err)
	}
	if !strings.Contains(out, "cycle") {
		t.Fatalf("output should name the cycle: %s", out)
	}

	// info repairs by default and shows both nodes under the root.
	out, err = execute(t, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "repaired") || !strings.Contains(out, "  • A") {
		t.Fatalf("info output: %s", out)
	}

	bad := filepath.Join(dir, "bad.neb")
	_ = os.WriteFile(bad, []byte(`[{"id": 1}]`), 0o644)
	_, err = execute(t, "validate", bad)
	var pe *storage.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.neb")
	if _, err := execute(t, "new", path); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "map.svg")
	if _, err := execute(t, "export", path, "--format", "svg", "--out", out, "--footprint", "fixed"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("svg not written: %v", err)
	}

	if _, err := execute(t, "export", path, "--format", "png"); err != nil {
		t.Fatalf("export png: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "map.png")); err != nil {
		t.Fatalf("default output path not used: %v", err)
	}
	if _, err := execute(t, "export", path, "--format", "gif"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestRootLaunchesUIWithDocument(t *testing.T) {
	var got string
	old := runUI
	runUI = func(p string) error { got = p; return nil }
	t.Cleanup(func() { runUI = old })

	if _, err := execute(t, `"C:\maps\plan.NEB"`); err != nil {
		t.Fatal(err)
	}
	if got != `C:\maps\plan.NEB` {
		t.Fatalf("launch path = %q", got)
	}
	got = "unset"
	if _, err := execute(t); err != nil || got != "" {
		t.Fatalf("no-arg launch: %v %q", err, got)
	}
	if _, err := execute(t, "notes.txt"); err == nil {
		t.Fatal("non-document argument should fail")
	}
}

func TestVersionAndExitCode(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.Contains(out, version.String()) {
		t.Fatalf("version: %v %q", err, out)
	}
	t.Setenv("NEB_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	if code := run([]string{"info", filepath.Join(t.TempDir(), "missing.neb")}); code != 1 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestCorruptDocumentNeedsExplicitBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.neb")
	if _, err := execute(t, "new", path); err != nil {
		t.Fatal(err)
	}
	// overwriting leaves a backup of the first version
	if _, err := execute(t, "new", "--force", path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "plan.svg")

	_, err := execute(t, "export", path, "-f", "svg", "-o", out)
	var pe *storage.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("export of a corrupt document: want *storage.ParseError, got %v", err)
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Fatal("nothing should be exported from a corrupt document")
	}

	msg, err := execute(t, "export", "--from-backup", path, "-f", "svg", "-o", out)
	if err != nil {
		t.Fatalf("export --from-backup: %v", err)
	}
	if !strings.Contains(msg, "using its latest backup") {
		t.Fatalf("missing backup warning: %s", msg)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export from backup not written: %v", err)
	}
}
