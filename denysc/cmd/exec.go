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

//go:build linux

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/google/subcommands"

	"gvisor.dev/denysc/denysc/cmd/util"
	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/log"
	"gvisor.dev/denysc/pkg/sandbox"
)

// Exec implements subcommands.Command for the "exec" command.
type Exec struct {
	// kernel is used instead of the host kernel, if set.
	kernel sandbox.Kernel

	// stderr is where diagnostics are written, ErrorLogger if nil.
	stderr io.Writer
}

// Name implements subcommands.Command.Name.
func (*Exec) Name() string {
	return "exec"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Exec) Synopsis() string {
	return "run a program with one system call denied"
}

// Usage implements subcommands.Command.Usage.
func (*Exec) Usage() string {
	return `exec <syscall_nr> <arch> <errno> <child_path> [<child_args...>]

Run <child_path> with a seccomp filter that makes <syscall_nr> fail with
<errno>. System calls made through an architecture other than <arch> kill
the calling thread. <child_path> is not searched for in PATH, and
<child_args> become argv[1:] of the child. "exec" is implied when the first
argument is not a command name.

` + filterUsage
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Exec) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (e *Exec) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	stderr := e.stderr
	if stderr == nil {
		stderr = util.ErrorLogger
	}
	if f.NArg() < 4 {
		return usageError(stderr, e.Usage(), nil)
	}
	fa, err := parseFilterArgs(f.Args())
	if err != nil {
		return usageError(stderr, e.Usage(), err)
	}

	k := e.kernel
	if k == nil {
		k = sandbox.HostKernel{}
	}
	req := sandbox.Request{
		Arch:    fa.arch,
		Syscall: fa.syscall,
		Errno:   fa.errno,
		Path:    f.Arg(3),
		Argv:    f.Args()[3:],
		Env:     os.Environ(),
	}
	err = sandbox.Launch(k, req)
	if err == nil {
		return subcommands.ExitSuccess
	}
	log.Warningf("Launch failed: %v", err)
	var serr *sandbox.Error
	if errors.As(err, &serr) {
		io.WriteString(stderr, serr.Error()+"\n")
		return stepStatus(serr.Step)
	}
	io.WriteString(stderr, err.Error()+"\n")
	return subcommands.ExitFailure
}
