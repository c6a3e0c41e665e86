/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package host is the narrow interface between the mind-map core and the
// desktop shell that owns windows and the filesystem.
package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	applog "nebula/internal/log"
)

// Shell is what the core needs from its host.
type Shell interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	FileExists(path string) bool
	// List returns the names of the regular files in dir, sorted.
	List(dir string) ([]string, error)
	// LaunchPath is the document the process was started with, if any.
	LaunchPath() (string, bool)
	// FileOpenRequests delivers paths the OS asks the running instance to open.
	FileOpenRequests() <-chan string
}

// IOError wraps a failed filesystem operation with its path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// LaunchPathFromArgs returns the first argument naming a document with
// extension ext. Surrounding quotes left by some launchers are stripped and
// flags are skipped.
func LaunchPathFromArgs(args []string, ext string) (string, bool) {
	ext = strings.ToLower(ext)
	for _, a := range args {
		clean := strings.TrimSpace(a)
		if len(clean) >= 2 && clean[0] == '"' && clean[len(clean)-1] == '"' {
			clean = strings.TrimSpace(clean[1 : len(clean)-1])
		}
		if clean == "" || strings.HasPrefix(clean, "-") {
			continue
		}
		if strings.HasSuffix(strings.ToLower(clean), ext) {
			return clean, true
		}
	}
	return "", false
}

// OSShell implements Shell on the local filesystem. The launch path is
// resolved once at construction.
type OSShell struct {
	launch   string
	requests chan string
	once     sync.Once
}

// NewOSShell resolves the launch document from args (without the program
// name).
func NewOSShell(args []string, ext string) *OSShell {
	s := &OSShell{requests: make(chan string, 8)}
	if p, ok := LaunchPathFromArgs(args, ext); ok {
		s.launch = p
		applog.WithComponent("host").Info("launch document", "path", p)
	}
	return s
}

func (s *OSShell) ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return b, nil
}

// WriteFile replaces path atomically: data goes to a synced temp file in
// the same directory which is then renamed over the target. Missing parent
// directories are created.
func (s *OSShell) WriteFile(path string, data []byte) error {
	if err := writeAtomic(path, data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *OSShell) FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func (s *OSShell) List(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}
	var names []string
	for _, e := range ents {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *OSShell) LaunchPath() (string, bool) { return s.launch, s.launch != "" }

func (s *OSShell) FileOpenRequests() <-chan string { return s.requests }

// RequestOpen queues path for the running instance. It reports false when
// the queue is full or the shell is closed.
func (s *OSShell) RequestOpen(path string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.requests <- path:
		return true
	default:
		return false
	}
}

// Close ends the request stream.
func (s *OSShell) Close() { s.once.Do(func() { close(s.requests) }) }

// MemShell is an in-memory Shell for tests and headless use.
type MemShell struct {
	mu       sync.Mutex
	Files    map[string][]byte
	Launch   string
	Requests chan string
	// FailWrites makes WriteFile return an error.
	FailWrites bool
}

func NewMemShell() *MemShell {
	return &MemShell{Files: map[string][]byte{}, Requests: make(chan string, 8)}
}

func (m *MemShell) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Files[path]
	if !ok {
		return nil, &IOError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), b...), nil
}

func (m *MemShell) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return &IOError{Op: "write", Path: path, Err: errors.New("write refused")}
	}
	m.Files[path] = append([]byte(nil), data...)
	return nil
}

func (m *MemShell) FileExists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Files[path]
	return ok
}

func (m *MemShell) List(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = filepath.Clean(dir)
	var names []string
	for p := range m.Files {
		if filepath.Dir(p) == dir {
			names = append(names, filepath.Base(p))
		}
	}
	if len(names) == 0 {
		return nil, &IOError{Op: "list", Path: dir, Err: fs.ErrNotExist}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemShell) LaunchPath() (string, bool)      { return m.Launch, m.Launch != "" }
func (m *MemShell) FileOpenRequests() <-chan string { return m.Requests }
