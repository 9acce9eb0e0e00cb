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

// Package cmd holds implementations of the denysc commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"gvisor.dev/denysc/pkg/sandbox"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Exit statuses of the exec command, in addition to the subcommands ones.
const (
	// ExitNoNewPrivs means that no_new_privs could not be set.
	ExitNoNewPrivs subcommands.ExitStatus = 3

	// ExitInstall means that the seccomp filter could not be installed.
	ExitInstall subcommands.ExitStatus = 4

	// ExitExec means that the program could not be executed.
	ExitExec subcommands.ExitStatus = 5
)

// archHint reminds the user of the most common <arch> values.
const archHint = "Hint for <arch>: AUDIT_ARCH_I386: 0x40000003 / AUDIT_ARCH_X86_64: 0xC000003E"

// filterUsage describes the positional arguments shared by the commands that
// compile a filter.
const filterUsage = `<syscall_nr> is the number of the system call to deny, <arch> the
AUDIT_ARCH_* value or name of the architecture it is made through, and
<errno> the error it fails with. Numbers may be decimal, octal (0...),
hexadecimal (0x...) or binary (0b...).
`

// stepStatus returns the exit status for a failed launch step.
func stepStatus(s sandbox.Step) subcommands.ExitStatus {
	switch s {
	case sandbox.StepNoNewPrivs:
		return ExitNoNewPrivs
	case sandbox.StepInstall:
		return ExitInstall
	case sandbox.StepExec:
		return ExitExec
	default:
		return subcommands.ExitFailure
	}
}

// parseNumber parses s as an integer in C syntax and truncates it to 32 bits.
// Negative numbers wrap around.
func parseNumber(s string) (uint32, error) {
	if s == "" || strings.Contains(s, "_") {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return uint32(u), nil
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(i), nil
}

// parseArch parses an architecture name or AUDIT_ARCH_* value.
func parseArch(s string) (uint32, error) {
	if a, ok := seccomp.LookupArch(s); ok {
		return a.Token, nil
	}
	token, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("invalid architecture %q", s)
	}
	return token, nil
}

// filterArgs are the values a deny-one filter is compiled from.
type filterArgs struct {
	syscall uint32
	arch    uint32
	errno   uint32
}

// parseFilterArgs parses <syscall_nr> <arch> <errno>.
func parseFilterArgs(args []string) (filterArgs, error) {
	if len(args) < 3 {
		return filterArgs{}, fmt.Errorf("expected <syscall_nr> <arch> <errno>, got %d arguments", len(args))
	}
	var (
		fa  filterArgs
		err error
	)
	if fa.syscall, err = parseNumber(args[0]); err != nil {
		return filterArgs{}, fmt.Errorf("<syscall_nr>: %w", err)
	}
	if fa.arch, err = parseArch(args[1]); err != nil {
		return filterArgs{}, fmt.Errorf("<arch>: %w", err)
	}
	if fa.errno, err = parseNumber(args[2]); err != nil {
		return filterArgs{}, fmt.Errorf("<errno>: %w", err)
	}
	return fa, nil
}

func (fa filterArgs) program() seccomp.Program {
	return seccomp.DenyOne(fa.arch, fa.syscall, fa.errno)
}

// usageError prints a usage diagnostic to w.
func usageError(w io.Writer, usage string, err error) subcommands.ExitStatus {
	if err != nil {
		fmt.Fprintf(w, "%v\n", err)
	}
	fmt.Fprintf(w, "usage: denysc %s%s\n", usage, archHint)
	return subcommands.ExitUsageError
}

// output returns w, or os.Stdout if w is nil.
func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
