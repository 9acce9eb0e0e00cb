// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"strconv"
	"strings"

	"gvisor.dev/denysc/denysc/flag"
)

// defaultCommand runs when the first argument is not a command name.
const defaultCommand = "exec"

// implicitArgs rewrites the raw command line args so that a filter given
// without a command name, "denysc <syscall_nr> ...", runs as
// "denysc exec -- <syscall_nr> ...". Leading flags of fs are kept in front.
//
// A negative syscall number would otherwise be taken for an undefined flag,
// so the rewrite happens before fs parses args.
func implicitArgs(fs *flag.FlagSet, names map[string]bool, args []string) []string {
	i := 0
	for i < len(args) {
		a := args[i]
		if a == "--" {
			rest := args[i+1:]
			if len(rest) > 0 && names[rest[0]] {
				return args
			}
			return withDefault(args[:i], rest)
		}
		if len(a) < 2 || a[0] != '-' || isNumber(a) {
			break
		}
		i++
		name, _, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if hasValue {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f.Value) {
			// The value is the next arg.
			i++
		}
	}
	if i > len(args) {
		// Dangling flag value, let the parser report it.
		return args
	}
	if rest := args[i:]; len(rest) > 0 && names[rest[0]] {
		return args
	}
	return withDefault(args[:i], args[i:])
}

func withDefault(flags, rest []string) []string {
	out := make([]string, 0, len(flags)+2+len(rest))
	out = append(out, flags...)
	out = append(out, defaultCommand, "--")
	return append(out, rest...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 0, 64)
	return err == nil
}

func isBoolFlag(v any) bool {
	b, ok := v.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
