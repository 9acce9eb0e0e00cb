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
	"text/tabwriter"

	"github.com/google/subcommands"

	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Arches implements subcommands.Command for the "arches" command.
type Arches struct {
	out io.Writer
}

// Name implements subcommands.Command.Name.
func (*Arches) Name() string {
	return "arches"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Arches) Synopsis() string {
	return "list well-known <arch> values"
}

// Usage implements subcommands.Command.Usage.
func (*Arches) Usage() string {
	return "arches - list well-known <arch> values. The native architecture is marked with '*'.\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Arches) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (a *Arches) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	native, _ := seccomp.NativeArch()
	w := tabwriter.NewWriter(output(a.out), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tTOKEN\tGOARCH\t\n")
	for _, arch := range seccomp.Arches() {
		name := arch.Name
		if arch.Token == native.Token {
			name += "*"
		}
		fmt.Fprintf(w, "%s\t%#x\t%s\t\n", name, arch.Token, arch.GOARCH)
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
