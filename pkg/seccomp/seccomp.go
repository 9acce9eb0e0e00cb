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

// Package seccomp compiles and installs seccomp filters that deny exactly one
// system call.
//
// The filter is a fixed eight-instruction classic BPF program: it kills the
// caller when the system call is made through an architecture other than the
// one it was compiled for, makes the denied system call fail with a chosen
// errno, and allows everything else.
package seccomp

import (
	"fmt"
	"math"

	netbpf "golang.org/x/net/bpf"

	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/bpf"
)

const (
	// killLabel is the label for the bad architecture action.
	killLabel = "kill"

	// allowLabel is the label every other system call jumps to.
	allowLabel = "allow"

	// ProgramLen is the number of instructions of every compiled Program.
	ProgramLen = 8
)

// Program is a compiled deny-one filter. It is immutable; accessors return
// copies.
type Program struct {
	instrs []linux.BPFInstruction
}

// UpperBound returns the largest system call number the filter considers
// part of arch's primary numbering space. For AUDIT_ARCH_X86_64 numbers with
// __X32_SYSCALL_BIT set belong to the x32 ABI and are above the bound; for
// any other architecture the bound is the maximum value.
func UpperBound(arch uint32) uint32 {
	if arch == linux.AUDIT_ARCH_X86_64 {
		return linux.X32SyscallBit - 1
	}
	return math.MaxUint32
}

// ErrnoAction returns the action that fails a system call with errno. Bits
// of errno that do not fit in SECCOMP_RET_DATA are discarded.
func ErrnoAction(errno uint32) linux.BPFAction {
	return linux.SECCOMP_RET_ERRNO.WithReturnCode(uint16(errno))
}

// DenyOne compiles a filter which makes system call sysno, made through arch,
// fail with errno. Other system calls through arch are allowed, and any
// system call through a different architecture kills the calling thread.
//
// The x32 guard allows x32 system calls on x86-64 without looking at their
// low bits, so sysno is only denied in the native numbering space.
//
// DenyOne never fails.
func DenyOne(arch, sysno, errno uint32) Program {
	p := bpf.NewProgramBuilder()
	add := func(insn netbpf.Instruction) {
		if err := p.AddInstruction(insn); err != nil {
			panic(fmt.Sprintf("assembling deny-one filter: %v", err))
		}
	}
	label := func(name string) {
		if err := p.AddLabel(name); err != nil {
			panic(fmt.Sprintf("assembling deny-one filter: %v", err))
		}
	}

	// A = seccomp_data.arch
	// if (A != arch) goto kill
	add(netbpf.LoadAbsolute{Off: linux.SeccompDataOffsetArch, Size: 4})
	p.AddJumpFalseLabel(bpf.Jmp|bpf.Jeq|bpf.K, arch, 0, killLabel)

	// A = seccomp_data.nr
	// if (A > bound) goto allow
	// if (A != sysno) goto allow
	add(netbpf.LoadAbsolute{Off: linux.SeccompDataOffsetNR, Size: 4})
	p.AddJumpTrueLabel(bpf.Jmp|bpf.Jgt|bpf.K, UpperBound(arch), allowLabel, 0)
	p.AddJumpFalseLabel(bpf.Jmp|bpf.Jeq|bpf.K, sysno, 0, allowLabel)

	add(netbpf.RetConstant{Val: uint32(ErrnoAction(errno))})
	label(allowLabel)
	add(netbpf.RetConstant{Val: uint32(linux.SECCOMP_RET_ALLOW)})
	label(killLabel)
	add(netbpf.RetConstant{Val: uint32(linux.SECCOMP_RET_KILL)})

	instrs, err := p.Instructions()
	if err != nil {
		panic(fmt.Sprintf("resolving deny-one filter: %v", err))
	}
	if len(instrs) != ProgramLen {
		panic(fmt.Sprintf("deny-one filter has %d instructions, want %d", len(instrs), ProgramLen))
	}
	return Program{instrs: instrs}
}

// Len returns the number of instructions in the program.
func (p Program) Len() int {
	return len(p.instrs)
}

// BPF returns the raw instructions, in the layout the kernel expects.
func (p Program) BPF() []linux.BPFInstruction {
	return append([]linux.BPFInstruction(nil), p.instrs...)
}

// Instructions returns the typed form of the program.
func (p Program) Instructions() []netbpf.Instruction {
	insns, ok := bpf.Disassemble(p.instrs)
	if !ok {
		panic(fmt.Sprintf("deny-one filter has an undecodable instruction: %v", insns))
	}
	return insns
}

// Validate checks the program against the kernel's rules for seccomp
// filters.
func (p Program) Validate() (bpf.Program, error) {
	return bpf.Compile(p.instrs)
}

// String returns the program in text format.
func (p Program) String() string {
	s, err := bpf.DecodeProgram(p.instrs)
	if err != nil {
		return fmt.Sprintf("Error: %v\n%s", err, s)
	}
	return s
}
