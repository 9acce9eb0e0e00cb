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

package sandbox

import (
	"golang.org/x/sys/unix"

	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/seccomp"
)

// HostKernel is the Kernel of the running process.
type HostKernel struct{}

// SetNoNewPrivs implements Kernel.SetNoNewPrivs.
func (HostKernel) SetNoNewPrivs() error {
	return seccomp.SetNoNewPrivs()
}

// SetFilter implements Kernel.SetFilter.
func (HostKernel) SetFilter(instrs []linux.BPFInstruction) error {
	return seccomp.SetFilter(instrs)
}

// Exec implements Kernel.Exec.
func (HostKernel) Exec(path string, argv, envv []string) error {
	return unix.Exec(path, argv, envv)
}
