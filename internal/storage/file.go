/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nebula/internal/host"
	applog "nebula/internal/log"
	"nebula/internal/mindmap"
)

const (
	Extension      = ".neb"
	BackupsDirName = ".nebula-backups"
	backupStamp    = "20060102-150405.000"
)

// Handle is an open document: where it lives and its nodes.
type Handle struct {
	Path  string
	Nodes []mindmap.Node
	// Violations found while decoding, if any.
	Violations []mindmap.Violation
	// FromBackup is set when the document was recovered from a backup.
	FromBackup bool
}

// ErrNoBackup is returned by OpenLatestBackup when path has no backups.
var ErrNoBackup = errors.New("storage: no backups found")

// ExportFileName is the timestamped name offered for a saved document.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("nebula-%d%s", now.UnixMilli(), Extension)
}

// Open reads and decodes path through the host shell. A document that
// does not parse fails with *ParseError; recovering from a backup is left
// to the caller (see OpenLatestBackup).
func Open(sh host.Shell, path string, policy Policy) (*Handle, error) {
	b, err := sh.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(b, policy)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	logDecoded(path, doc)
	return &Handle{Path: path, Nodes: doc.Nodes, Violations: doc.Violations}, nil
}

// Save encodes the handle's nodes and writes them through the host shell.
// An existing file is first copied to a timestamped backup in BackupDir.
func Save(sh host.Shell, h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if strings.TrimSpace(h.Path) == "" {
		return errors.New("invalid Handle: missing path")
	}
	data, err := Encode(h.Nodes)
	if err != nil {
		return err
	}
	if sh.FileExists(h.Path) {
		prev, err := sh.ReadFile(h.Path)
		if err != nil {
			return fmt.Errorf("backup current document: %w", err)
		}
		if err := sh.WriteFile(backupPath(h.Path, time.Now()), prev); err != nil {
			return fmt.Errorf("backup current document: %w", err)
		}
	}
	if err := sh.WriteFile(h.Path, data); err != nil {
		return err
	}
	applog.WithComponent("storage").Info("document saved", "path", h.Path, "nodes", len(h.Nodes))
	return nil
}

func logDecoded(path string, doc Document) {
	l := applog.WithComponent("storage")
	if len(doc.Violations) > 0 {
		l.Warn("document violations", "path", path, "count", len(doc.Violations), "first", doc.Violations[0].String())
	}
	l.Info("document opened", "path", path, "nodes", len(doc.Nodes))
}

// BackupDir is where backups of path are kept.
func BackupDir(path string) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName)
}

func backupPath(path string, now time.Time) string {
	return filepath.Join(BackupDir(path), fmt.Sprintf("%s.%s.bak", filepath.Base(path), now.Format(backupStamp)))
}

// OpenLatestBackup decodes the newest backup of path. The handle keeps
// path so a later Save replaces the damaged document.
func OpenLatestBackup(sh host.Shell, path string, policy Policy) (*Handle, error) {
	bdir := BackupDir(path)
	names, err := sh.List(bdir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoBackup
	}
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoBackup
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := filepath.Join(bdir, candidates[len(candidates)-1])
	b, err := sh.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := Decode(b, policy)
	if err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	applog.WithComponent("storage").Warn("document restored from backup", "path", path, "backup", latest)
	return &Handle{Path: path, Nodes: doc.Nodes, Violations: doc.Violations, FromBackup: true}, nil
}

// AutosaveCrashSnapshot writes the handle's nodes next to the document as
// <name>.crash-<stamp>.neb without touching the document itself. Untitled
// handles go to the temp dir.
func AutosaveCrashSnapshot(sh host.Shell, h *Handle, now time.Time) (string, error) {
	if h == nil {
		return "", errors.New("nil Handle")
	}
	data, err := Encode(h.Nodes)
	if err != nil {
		return "", err
	}
	dir, name := os.TempDir(), "untitled"
	if h.Path != "" {
		dir = filepath.Dir(h.Path)
		name = strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s%s", name, now.Format("20060102-150405"), Extension))
	if err := sh.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
