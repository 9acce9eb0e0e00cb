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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/moby/sys/capability"

	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Status implements subcommands.Command for the "status" command.
type Status struct {
	out io.Writer
}

// Name implements subcommands.Command.Name.
func (*Status) Name() string {
	return "status"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Status) Synopsis() string {
	return "report the seccomp state and support of this process"
}

// Usage implements subcommands.Command.Usage.
func (*Status) Usage() string {
	return "status - report whether exec can install a filter here.\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Status) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (s *Status) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	w := tabwriter.NewWriter(output(s.out), 0, 0, 2, ' ', 0)
	for _, line := range statusLines() {
		fmt.Fprintf(w, "%s:\t%s\n", line[0], line[1])
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func modeName(mode int) string {
	switch mode {
	case linux.SECCOMP_MODE_NONE:
		return "disabled"
	case linux.SECCOMP_MODE_STRICT:
		return "strict"
	case linux.SECCOMP_MODE_FILTER:
		return "filter"
	default:
		return fmt.Sprintf("unknown (%d)", mode)
	}
}

func statusLines() [][2]string {
	var lines [][2]string
	add := func(key, format string, v ...any) {
		lines = append(lines, [2]string{key, fmt.Sprintf(format, v...)})
	}

	if mode, err := seccomp.Mode(); err != nil {
		add("seccomp mode", "error: %v", err)
	} else {
		add("seccomp mode", "%s", modeName(mode))
	}
	if nnp, err := seccomp.NoNewPrivs(); err != nil {
		add("no_new_privs", "error: %v", err)
	} else {
		add("no_new_privs", "%t", nnp)
	}
	for _, a := range []struct {
		name   string
		action linux.BPFAction
	}{
		{"errno", linux.SECCOMP_RET_ERRNO},
		{"kill thread", linux.SECCOMP_RET_KILL_THREAD},
		{"kill process", linux.SECCOMP_RET_KILL_PROCESS},
	} {
		key := "action " + a.name
		if ok, err := seccomp.IsActionAvailable(a.action); err != nil {
			add(key, "error: %v", err)
		} else if ok {
			add(key, "available")
		} else {
			add(key, "unavailable")
		}
	}
	if native, ok := seccomp.NativeArch(); ok {
		add("native arch", "%v", native)
	} else {
		add("native arch", "unknown")
	}
	if caps, err := capability.NewPid2(0); err != nil {
		add("CAP_SYS_ADMIN", "error: %v", err)
	} else if err := caps.Load(); err != nil {
		add("CAP_SYS_ADMIN", "error: %v", err)
	} else {
		add("CAP_SYS_ADMIN", "%t", caps.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN))
	}
	return lines
}
