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

package seccomp

import (
	"encoding/binary"

	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/bpf"
)

// Call describes a system call as a filter sees it.
type Call = linux.SeccompData

// Input converts a Call to a bpf.Input, in native byte order.
func Input(c Call) bpf.Input {
	in := make([]byte, 0, linux.SizeOfSeccompData)
	in = binary.NativeEndian.AppendUint32(in, uint32(c.Nr))
	in = binary.NativeEndian.AppendUint32(in, c.Arch)
	in = binary.NativeEndian.AppendUint64(in, c.InstructionPointer)
	for _, arg := range c.Args {
		in = binary.NativeEndian.AppendUint64(in, arg)
	}
	return in
}

// Evaluate runs p against c the way the kernel would and returns the
// resulting action.
func Evaluate(p Program, c Call) (linux.BPFAction, error) {
	action, _, err := Trace(p, c)
	return action, err
}

// Trace is like Evaluate, but also returns the indexes of the executed
// instructions.
func Trace(p Program, c Call) (linux.BPFAction, []int, error) {
	compiled, err := p.Validate()
	if err != nil {
		return 0, nil, err
	}
	ret, path, err := bpf.Trace(compiled, Input(c))
	if err != nil {
		return 0, path, err
	}
	return linux.BPFAction(ret), path, nil
}
