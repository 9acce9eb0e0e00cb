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
	"strings"

	netbpf "golang.org/x/net/bpf"

	"gvisor.dev/denysc/pkg/abi/linux"
)

// DecodeProgram translates an array of BPF instructions into text format,
// one numbered instruction per line.
func DecodeProgram(program []linux.BPFInstruction) (string, error) {
	var ret strings.Builder
	for line, s := range program {
		str, err := Decode(s)
		if err != nil {
			return ret.String(), fmt.Errorf("line %d: %w", line, err)
		}
		fmt.Fprintf(&ret, "%v: %s\n", line, str)
	}
	return ret.String(), nil
}

// Decode translates BPF instruction into text format, in the assembler
// syntax used by golang.org/x/net/bpf (e.g. "ld [4]", "jeq #1,2,3").
func Decode(inst linux.BPFInstruction) (string, error) {
	insn := ToRaw(inst).Disassemble()
	if _, ok := insn.(netbpf.RawInstruction); ok {
		return "", fmt.Errorf("invalid BPF instruction: %+v", inst)
	}
	s, ok := insn.(fmt.Stringer)
	if !ok {
		return "", fmt.Errorf("no text form for BPF instruction: %+v", inst)
	}
	return s.String(), nil
}
