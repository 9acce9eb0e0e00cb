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

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Check implements subcommands.Command for the "check" command.
type Check struct {
	callArch string
	trace    bool
	out      io.Writer
}

// Name implements subcommands.Command.Name.
func (*Check) Name() string {
	return "check"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Check) Synopsis() string {
	return "evaluate the filter against system calls without installing it"
}

// Usage implements subcommands.Command.Usage.
func (*Check) Usage() string {
	return `check [-call-arch <arch>] [-trace] <syscall_nr> <arch> <errno> <call_nr>...

Print the action the filter takes for each <call_nr>. Calls are made
through -call-arch, which defaults to <arch>.

` + filterUsage
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *Check) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.callArch, "call-arch", "", "architecture the calls are made through, defaults to the filter's.")
	f.BoolVar(&c.trace, "trace", false, "print the instructions executed for each call.")
}

// Execute implements subcommands.Command.Execute.
func (c *Check) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	out := output(c.out)
	if f.NArg() < 4 {
		return usageError(out, c.Usage(), nil)
	}
	fa, err := parseFilterArgs(f.Args())
	if err != nil {
		return usageError(out, c.Usage(), err)
	}
	callArch := fa.arch
	if c.callArch != "" {
		if callArch, err = parseArch(c.callArch); err != nil {
			return usageError(out, c.Usage(), fmt.Errorf("-call-arch: %w", err))
		}
	}
	var calls []int32
	for _, arg := range f.Args()[3:] {
		nr, err := parseNumber(arg)
		if err != nil {
			return usageError(out, c.Usage(), fmt.Errorf("<call_nr>: %w", err))
		}
		calls = append(calls, int32(nr))
	}

	p := fa.program()
	for _, nr := range calls {
		action, path, err := seccomp.Trace(p, seccomp.Call{Nr: nr, Arch: callArch})
		if err != nil {
			fmt.Fprintf(out, "Error evaluating %d: %v\n", uint32(nr), err)
			return subcommands.ExitFailure
		}
		if c.trace {
			fmt.Fprintf(out, "%d: %v %v\n", uint32(nr), action, path)
		} else {
			fmt.Fprintf(out, "%d: %v\n", uint32(nr), action)
		}
	}
	return subcommands.ExitSuccess
}
