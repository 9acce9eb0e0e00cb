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

package bpf

import (
	"fmt"

	"gvisor.dev/denysc/pkg/abi/linux"
)

// Possible values for ProgramError.Code.
const (
	// DivisionByZero indicates that a program contains, or executed, a
	// division by zero.
	DivisionByZero = iota

	// InvalidEndOfProgram indicates that the last instruction of a program is
	// not a return.
	InvalidEndOfProgram

	// InvalidInstructionCount indicates that a program has zero instructions
	// or more than MaxInstructions instructions.
	InvalidInstructionCount

	// InvalidJumpTarget indicates that a program contains a jump whose target
	// is outside of the program's bounds.
	InvalidJumpTarget

	// InvalidLoad indicates that a program contains, or executed, a load
	// outside of the input or not aligned to a 32-bit boundary.
	InvalidLoad

	// InvalidOpcode indicates that a program contains an instruction that
	// seccomp filters may not use.
	InvalidOpcode

	// InvalidRegister indicates that a program contains a load from, or store
	// to, a non-existent M register (index >= ScratchMemRegisters).
	InvalidRegister

	// InvalidShift indicates that a program shifts by 32 or more bits.
	InvalidShift
)

// Error is an error encountered while compiling or executing a BPF program.
type Error struct {
	// Code indicates the kind of error that occurred.
	Code int

	// PC is the program counter (index into the list of instructions) at which
	// the error occurred.
	PC int
}

func (e Error) codeString() string {
	switch e.Code {
	case DivisionByZero:
		return "division by zero"
	case InvalidEndOfProgram:
		return "last instruction must be a return"
	case InvalidInstructionCount:
		return "invalid number of instructions"
	case InvalidJumpTarget:
		return "jump target out of bounds"
	case InvalidLoad:
		return "load out of bounds or violates input alignment requirements"
	case InvalidOpcode:
		return "invalid instruction opcode"
	case InvalidRegister:
		return "invalid M register"
	case InvalidShift:
		return "shift amount out of range"
	default:
		return "unknown error"
	}
}

// Error implements error.Error.
func (e Error) Error() string {
	return fmt.Sprintf("at l%d: %s", e.PC, e.codeString())
}

// Program is a BPF program that has been validated for consistency.
type Program struct {
	instructions []linux.BPFInstruction
}

// Length returns the number of instructions in the program.
func (p Program) Length() int {
	return len(p.instructions)
}

// Compile validates a sequence of BPF instructions against the rules Linux
// applies to seccomp filters (kernel/seccomp.c:seccomp_check_filter on top of
// net/core/filter.c:bpf_check_classic) before wrapping them in a Program.
//
// Loads of input data must be 32-bit, absolute, aligned, and inside struct
// seccomp_data. Linux additionally verifies that every load from an M
// register is preceded by a store on every path; that check is skipped here
// since the interpreter always starts with zeroed M registers.
func Compile(insns []linux.BPFInstruction) (Program, error) {
	if len(insns) == 0 || len(insns) > MaxInstructions {
		return Program{}, Error{InvalidInstructionCount, len(insns)}
	}

	if last := insns[len(insns)-1]; last.OpCode != (Ret|K) && last.OpCode != (Ret|A) {
		return Program{}, Error{InvalidEndOfProgram, len(insns) - 1}
	}

	for pc, i := range insns {
		if i.OpCode&unusedBitsMask != 0 {
			return Program{}, Error{InvalidOpcode, pc}
		}
		if err := check(insns, pc, i); err != nil {
			return Program{}, err
		}
	}

	// The Program owns its copy.
	return Program{append([]linux.BPFInstruction(nil), insns...)}, nil
}

func check(insns []linux.BPFInstruction, pc int, i linux.BPFInstruction) error {
	switch i.OpCode & instructionClassMask {
	case Ld, Ldx:
		if i.OpCode&loadSizeMask != W {
			return Error{InvalidOpcode, pc}
		}
		switch mode := i.OpCode & loadModeMask; mode {
		case Imm, Len:
		case Abs:
			if i.OpCode&instructionClassMask == Ldx {
				return Error{InvalidOpcode, pc}
			}
			if i.K&3 != 0 || i.K >= linux.SizeOfSeccompData {
				return Error{InvalidLoad, pc}
			}
		case Mem:
			if i.K >= ScratchMemRegisters {
				return Error{InvalidRegister, pc}
			}
		default:
			return Error{InvalidOpcode, pc}
		}
	case St, Stx:
		if i.OpCode&storeUnusedBitsMask != 0 {
			return Error{InvalidOpcode, pc}
		}
		if i.K >= ScratchMemRegisters {
			return Error{InvalidRegister, pc}
		}
	case Alu:
		src := i.OpCode & srcAluJmpMask
		switch i.OpCode & aluMask {
		case Add, Sub, Mul, Or, And, Xor:
		case Lsh, Rsh:
			if src == K && i.K >= 32 {
				return Error{InvalidShift, pc}
			}
		case Div:
			if src == K && i.K == 0 {
				return Error{DivisionByZero, pc}
			}
		case Neg:
			// Negation doesn't take a source operand.
			if src != 0 {
				return Error{InvalidOpcode, pc}
			}
		default:
			// Includes Mod, which seccomp does not accept.
			return Error{InvalidOpcode, pc}
		}
	case Jmp:
		switch i.OpCode & jmpMask {
		case Ja:
			if i.OpCode&srcAluJmpMask != 0 {
				return Error{InvalidOpcode, pc}
			}
			// Do the comparison in 64 bits to avoid the possibility of
			// overflow from a very large i.K.
			if uint64(pc)+uint64(i.K)+1 >= uint64(len(insns)) {
				return Error{InvalidJumpTarget, pc}
			}
		case Jeq, Jgt, Jge, Jset:
			// jt and jf are uint8s, so there's no threat of overflow.
			if pc+int(i.JumpIfTrue)+1 >= len(insns) {
				return Error{InvalidJumpTarget, pc}
			}
			if pc+int(i.JumpIfFalse)+1 >= len(insns) {
				return Error{InvalidJumpTarget, pc}
			}
		default:
			return Error{InvalidOpcode, pc}
		}
	case Ret:
		if i.OpCode&retUnusedBitsMask != 0 {
			return Error{InvalidOpcode, pc}
		}
		if src := i.OpCode & srcRetMask; src != K && src != A {
			return Error{InvalidOpcode, pc}
		}
	case Misc:
		if misc := i.OpCode & miscMask; misc != Tax && misc != Txa {
			return Error{InvalidOpcode, pc}
		}
	}
	return nil
}

// Input is the data a program is evaluated against: a struct seccomp_data in
// native byte order.
type Input []byte

func (in Input) load32(off uint32) (uint32, bool) {
	if off&3 != 0 || uint64(off)+4 > uint64(len(in)) {
		return 0, false
	}
	return nativeEndian.Uint32(in[off:]), true
}

// machine represents the state of a BPF virtual machine.
type machine struct {
	A uint32
	X uint32
	M [ScratchMemRegisters]uint32
}

func conditionalJumpOffset(insn linux.BPFInstruction, cond bool) int {
	if cond {
		return int(insn.JumpIfTrue)
	}
	return int(insn.JumpIfFalse)
}

// Exec executes a BPF program over the given input and returns its return
// value.
func Exec(p Program, in Input) (uint32, error) {
	return run(p, in, nil)
}

// Trace is like Exec, but also returns the indexes of the instructions that
// were executed, in order.
func Trace(p Program, in Input) (uint32, []int, error) {
	var path []int
	ret, err := run(p, in, func(pc int) { path = append(path, pc) })
	return ret, path, err
}

func run(p Program, in Input, visit func(pc int)) (uint32, error) {
	var m machine
	var pc int
	for ; pc < len(p.instructions); pc++ {
		if visit != nil {
			visit(pc)
		}
		i := p.instructions[pc]
		switch i.OpCode {
		case Ld | Imm | W:
			m.A = i.K
		case Ld | Abs | W:
			val, ok := in.load32(i.K)
			if !ok {
				return 0, Error{InvalidLoad, pc}
			}
			m.A = val
		case Ld | Mem | W:
			m.A = m.M[int(i.K)]
		case Ld | Len | W:
			m.A = uint32(len(in))
		case Ldx | Imm | W:
			m.X = i.K
		case Ldx | Mem | W:
			m.X = m.M[int(i.K)]
		case Ldx | Len | W:
			m.X = uint32(len(in))
		case St:
			m.M[int(i.K)] = m.A
		case Stx:
			m.M[int(i.K)] = m.X
		case Alu | Add | K:
			m.A += i.K
		case Alu | Add | X:
			m.A += m.X
		case Alu | Sub | K:
			m.A -= i.K
		case Alu | Sub | X:
			m.A -= m.X
		case Alu | Mul | K:
			m.A *= i.K
		case Alu | Mul | X:
			m.A *= m.X
		case Alu | Div | K:
			// K != 0 already checked by Compile.
			m.A /= i.K
		case Alu | Div | X:
			if m.X == 0 {
				return 0, Error{DivisionByZero, pc}
			}
			m.A /= m.X
		case Alu | Or | K:
			m.A |= i.K
		case Alu | Or | X:
			m.A |= m.X
		case Alu | And | K:
			m.A &= i.K
		case Alu | And | X:
			m.A &= m.X
		case Alu | Xor | K:
			m.A ^= i.K
		case Alu | Xor | X:
			m.A ^= m.X
		case Alu | Lsh | K:
			m.A <<= i.K
		case Alu | Lsh | X:
			m.A <<= m.X & 31
		case Alu | Rsh | K:
			m.A >>= i.K
		case Alu | Rsh | X:
			m.A >>= m.X & 31
		case Alu | Neg:
			m.A = uint32(-int32(m.A))
		case Jmp | Ja:
			pc += int(i.K)
		case Jmp | Jeq | K:
			pc += conditionalJumpOffset(i, m.A == i.K)
		case Jmp | Jeq | X:
			pc += conditionalJumpOffset(i, m.A == m.X)
		case Jmp | Jgt | K:
			pc += conditionalJumpOffset(i, m.A > i.K)
		case Jmp | Jgt | X:
			pc += conditionalJumpOffset(i, m.A > m.X)
		case Jmp | Jge | K:
			pc += conditionalJumpOffset(i, m.A >= i.K)
		case Jmp | Jge | X:
			pc += conditionalJumpOffset(i, m.A >= m.X)
		case Jmp | Jset | K:
			pc += conditionalJumpOffset(i, (m.A&i.K) != 0)
		case Jmp | Jset | X:
			pc += conditionalJumpOffset(i, (m.A&m.X) != 0)
		case Ret | K:
			return i.K, nil
		case Ret | A:
			return m.A, nil
		case Misc | Tax:
			m.X = m.A
		case Misc | Txa:
			m.A = m.X
		default:
			return 0, Error{InvalidOpcode, pc}
		}
	}
	return 0, Error{InvalidEndOfProgram, pc}
}
