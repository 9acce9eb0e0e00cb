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

package seccomp

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"gvisor.dev/denysc/pkg/abi/linux"
)

// BPFInstruction is reinterpreted as unix.SockFilter when handed to the
// kernel, so the two must agree field for field.
func TestInstructionLayout(t *testing.T) {
	var ours linux.BPFInstruction
	var theirs unix.SockFilter
	for _, test := range []struct {
		name         string
		ours, theirs uintptr
	}{
		{"size", unsafe.Sizeof(ours), unsafe.Sizeof(theirs)},
		{"code", unsafe.Offsetof(ours.OpCode), unsafe.Offsetof(theirs.Code)},
		{"jt", unsafe.Offsetof(ours.JumpIfTrue), unsafe.Offsetof(theirs.Jt)},
		{"jf", unsafe.Offsetof(ours.JumpIfFalse), unsafe.Offsetof(theirs.Jf)},
		{"k", unsafe.Offsetof(ours.K), unsafe.Offsetof(theirs.K)},
	} {
		t.Run(test.name, func(t *testing.T) {
			if test.ours != test.theirs {
				t.Errorf("got %d, want %d", test.ours, test.theirs)
			}
		})
	}
}

func TestSockFprog(t *testing.T) {
	instrs := DenyOne(linux.AUDIT_ARCH_I386, 3, 13).BPF()
	prog := sockFprog(instrs)

	// The filter pointer must follow the length at the native word
	// alignment: offset 4 on 32-bit targets and 8 on 64-bit ones.
	if got, want := unsafe.Offsetof(prog.Filter), unsafe.Alignof(prog.Filter); got != want {
		t.Errorf("filter offset: got %d, want %d", got, want)
	}
	if got, want := int(prog.Len), len(instrs); got != want {
		t.Errorf("Len: got %d, want %d", got, want)
	}
	if prog.Filter != (*unix.SockFilter)(unsafe.Pointer(&instrs[0])) {
		t.Fatalf("Filter does not point at the first instruction")
	}

	got := unsafe.Slice(prog.Filter, prog.Len)
	var want []unix.SockFilter
	for _, in := range instrs {
		want = append(want, unix.SockFilter{Code: in.OpCode, Jt: in.JumpIfTrue, Jf: in.JumpIfFalse, K: in.K})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFilterEmpty(t *testing.T) {
	if err := SetFilter(nil); err != unix.EINVAL {
		t.Errorf("SetFilter(nil) = %v, want %v", err, unix.EINVAL)
	}
}
