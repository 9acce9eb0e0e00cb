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
	"testing"

	"github.com/google/go-cmp/cmp"
	netbpf "golang.org/x/net/bpf"

	"gvisor.dev/denysc/pkg/abi/linux"
)

func validate(t *testing.T, p *ProgramBuilder, expected []linux.BPFInstruction) {
	t.Helper()
	instructions, err := p.Instructions()
	if err != nil {
		t.Fatalf("Instructions() failed: %v", err)
	}
	if diff := cmp.Diff(expected, instructions); diff != "" {
		t.Errorf("Instructions() mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramBuilderSimple(t *testing.T) {
	p := NewProgramBuilder()
	p.AddStmt(Ld|Abs|W, 4)
	p.AddJump(Jmp|Jeq|K, 10, 0, 0)
	p.AddStmt(Ret|K, 0)

	validate(t, p, []linux.BPFInstruction{
		Stmt(Ld|Abs|W, 4),
		Jump(Jmp|Jeq|K, 10, 0, 0),
		Stmt(Ret|K, 0),
	})
	if got, want := p.Len(), 3; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestProgramBuilderLabels(t *testing.T) {
	p := NewProgramBuilder()
	p.AddJumpTrueLabel(Jmp|Jeq|K, 11, "match", 0)
	p.AddJumpFalseLabel(Jmp|Jeq|K, 12, 0, "other")
	p.AddJumpLabels(Jmp|Jgt|K, 13, "match", "other")
	p.AddDirectJumpLabel("other")
	if err := p.AddLabel("match"); err != nil {
		t.Fatalf("AddLabel(match) failed: %v", err)
	}
	p.AddStmt(Ret|K, 1)
	if err := p.AddLabel("other"); err != nil {
		t.Fatalf("AddLabel(other) failed: %v", err)
	}
	p.AddStmt(Ret|K, 2)

	want := []linux.BPFInstruction{
		Jump(Jmp|Jeq|K, 11, 3, 0),
		Jump(Jmp|Jeq|K, 12, 0, 3),
		Jump(Jmp|Jgt|K, 13, 1, 2),
		Jump(Jmp|Ja, 1, 0, 0),
		Stmt(Ret|K, 1),
		Stmt(Ret|K, 2),
	}
	validate(t, p, want)
	// Instructions can be called again without ruining the program.
	validate(t, p, want)
}

func TestProgramBuilderAddInstruction(t *testing.T) {
	p := NewProgramBuilder()
	for _, insn := range []netbpf.Instruction{
		netbpf.LoadAbsolute{Off: linux.SeccompDataOffsetArch, Size: 4},
		netbpf.RetConstant{Val: 7},
	} {
		if err := p.AddInstruction(insn); err != nil {
			t.Fatalf("AddInstruction(%v) failed: %v", insn, err)
		}
	}
	validate(t, p, []linux.BPFInstruction{
		Stmt(Ld|Abs|W, linux.SeccompDataOffsetArch),
		Stmt(Ret|K, 7),
	})

	if err := p.AddInstruction(netbpf.LoadAbsolute{Off: 0, Size: 3}); err == nil {
		t.Errorf("AddInstruction with a 3-byte load should have failed")
	}
}

func TestProgramBuilderErrors(t *testing.T) {
	for _, test := range []struct {
		name  string
		build func(p *ProgramBuilder) error
	}{
		{
			name: "missing target",
			build: func(p *ProgramBuilder) error {
				p.AddJumpTrueLabel(Jmp|Jeq|K, 10, "label_1", 0)
				p.AddStmt(Ret|K, 0)
				return nil
			},
		},
		{
			name: "label with no instruction",
			build: func(p *ProgramBuilder) error {
				p.AddJumpTrueLabel(Jmp|Jeq|K, 10, "label_1", 0)
				return p.AddLabel("label_1")
			},
		},
		{
			name: "unused label",
			build: func(p *ProgramBuilder) error {
				p.AddStmt(Ret|K, 0)
				if err := p.AddLabel("unused"); err == nil {
					t.Errorf("AddLabel(unused) should have failed")
				}
				// Fail Instructions() through a dangling label instead.
				p.AddDirectJumpLabel("dangling")
				return nil
			},
		},
		{
			name: "label set twice",
			build: func(p *ProgramBuilder) error {
				p.AddJumpTrueLabel(Jmp|Jeq|K, 10, "label_1", 0)
				if err := p.AddLabel("label_1"); err != nil {
					return err
				}
				p.AddStmt(Ret|K, 0)
				if err := p.AddLabel("label_1"); err == nil {
					t.Errorf("AddLabel(label_1) twice should have failed")
				}
				// Leave the program in an unresolvable state.
				p.AddJumpFalseLabel(Jmp|Jeq|K, 10, 0, "label_2")
				return nil
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			p := NewProgramBuilder()
			if err := test.build(p); err != nil {
				return
			}
			if _, err := p.Instructions(); err == nil {
				t.Errorf("Instructions() should have failed")
			}
		})
	}
}

func TestProgramBuilderJumpTooFar(t *testing.T) {
	p := NewProgramBuilder()
	p.AddJumpTrueLabel(Jmp|Jeq|K, 10, "far", 0)
	for i := 0; i < 300; i++ {
		p.AddStmt(Ld|Imm|W, 0)
	}
	if err := p.AddLabel("far"); err != nil {
		t.Fatalf("AddLabel(far) failed: %v", err)
	}
	p.AddStmt(Ret|K, 0)
	if _, err := p.Instructions(); err == nil {
		t.Errorf("Instructions() should have failed for a conditional jump over 300 instructions")
	}
}
