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
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"

	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/bpf"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Dump implements subcommands.Command for the "dump" command.
type Dump struct {
	output string
	out    io.Writer
}

// Instruction is a filter instruction as printed by dump.
type Instruction struct {
	Index int    `json:"index" yaml:"index"`
	Code  uint16 `json:"code" yaml:"code"`
	JT    uint8  `json:"jt" yaml:"jt"`
	JF    uint8  `json:"jf" yaml:"jf"`
	K     uint32 `json:"k" yaml:"k"`
	Text  string `json:"text" yaml:"text"`
}

// Filter is a compiled filter as printed by dump.
type Filter struct {
	Arch         string        `json:"arch" yaml:"arch"`
	ArchToken    uint32        `json:"arch_token" yaml:"arch_token"`
	Syscall      uint32        `json:"syscall" yaml:"syscall"`
	Errno        uint16        `json:"errno" yaml:"errno"`
	Instructions []Instruction `json:"instructions" yaml:"instructions"`
}

type dumpFunc func(io.Writer, filterArgs, seccomp.Program) error

var dumpMap = map[string]dumpFunc{
	"text": dumpText,
	"json": dumpJSON,
	"yaml": dumpYAML,
}

// Name implements subcommands.Command.Name.
func (*Dump) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Dump) Synopsis() string {
	return "print the filter exec would install"
}

// Usage implements subcommands.Command.Usage.
func (*Dump) Usage() string {
	return `dump [-o text|json|yaml] <syscall_nr> <arch> <errno>

` + filterUsage
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Dump) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.output, "o", "text", "Output format (text, json, yaml).")
}

// Execute implements subcommands.Command.Execute.
func (d *Dump) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	out := output(d.out)
	dump, ok := dumpMap[d.output]
	if !ok {
		return usageError(out, d.Usage(), fmt.Errorf("unsupported output format %q", d.output))
	}
	if f.NArg() != 3 {
		return usageError(out, d.Usage(), nil)
	}
	fa, err := parseFilterArgs(f.Args())
	if err != nil {
		return usageError(out, d.Usage(), err)
	}
	if err := dump(out, fa, fa.program()); err != nil {
		fmt.Fprintf(out, "Error writing output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func newFilter(fa filterArgs, p seccomp.Program) (Filter, error) {
	filter := Filter{
		Arch:      seccomp.ArchName(fa.arch),
		ArchToken: fa.arch,
		Syscall:   fa.syscall,
		Errno:     seccomp.ErrnoAction(fa.errno).Data(),
	}
	for i, insn := range p.BPF() {
		text, err := bpf.Decode(insn)
		if err != nil {
			return Filter{}, err
		}
		filter.Instructions = append(filter.Instructions, Instruction{
			Index: i,
			Code:  insn.OpCode,
			JT:    insn.JumpIfTrue,
			JF:    insn.JumpIfFalse,
			K:     insn.K,
			Text:  text,
		})
	}
	return filter, nil
}

func dumpText(w io.Writer, _ filterArgs, p seccomp.Program) error {
	_, err := io.WriteString(w, p.String())
	return err
}

func dumpJSON(w io.Writer, fa filterArgs, p seccomp.Program) error {
	filter, err := newFilter(fa, p)
	if err != nil {
		return err
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(filter)
}

func dumpYAML(w io.Writer, fa filterArgs, p seccomp.Program) error {
	filter, err := newFilter(fa, p)
	if err != nil {
		return err
	}
	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	if err := e.Encode(filter); err != nil {
		return err
	}
	return e.Close()
}
