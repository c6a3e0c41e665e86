/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file, a snapshot of the open
// document and a non-zero exit.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"nebula/internal/host"
	applog "nebula/internal/log"
	"nebula/internal/storage"
	"nebula/internal/telemetry"
	"nebula/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs it with the stack, writes a crash report
// and autosaves h (if provided) next to the document.
//
// Usage: defer crash.Recover(h)
func Recover(h *storage.Handle) {
	if r := recover(); r != nil {
		handle(h, r)
	}
}

// RecoverWith is Recover for callers whose document changes over time:
// current is asked for the latest state only after a panic.
//
// Usage: defer crash.RecoverWith(editorSnapshot)
func RecoverWith(current func() *storage.Handle) {
	if r := recover(); r != nil {
		var h *storage.Handle
		if current != nil {
			h = current()
		}
		handle(h, r)
	}
}

func handle(h *storage.Handle, r any) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(h, r, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err), slog.String("path", reportPath))
	}
	if h != nil {
		if path, err := storage.AutosaveCrashSnapshot(host.NewOSShell(nil, storage.Extension), h, time.Now()); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// reportDir is the backups directory of the document, or the temp dir for
// untitled documents.
func reportDir(h *storage.Handle) string {
	if h == nil || h.Path == "" {
		return os.TempDir()
	}
	dir := storage.BackupDir(h.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(h *storage.Handle, panicVal any, stack []byte) (string, error) {
	now := time.Now()
	path := filepath.Join(reportDir(h), fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Nebula Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", h.Path)
		_, _ = fmt.Fprintf(&buf, "Nodes: %d\n", len(h.Nodes))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	if err := telemetry.Default().UploadCrash(context.Background(), buf.Bytes()); err != nil {
		applog.WithComponent("crash").Warn("crash upload failed", slog.Any("err", err))
	}
	return path, f.Sync()
}
