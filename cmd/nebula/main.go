/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"os"

	"nebula/internal/crash"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code. A panic is turned
// into a crash report and a snapshot of whatever document is open.
func run(args []string) int {
	defer crash.RecoverWith(currentDocument)
	root := rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		bad.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
