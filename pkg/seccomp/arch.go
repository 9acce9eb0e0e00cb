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
	"fmt"
	"runtime"
	"strings"

	"gvisor.dev/denysc/pkg/abi/linux"
)

// Arch names an AUDIT_ARCH_* token.
type Arch struct {
	// Name is the kernel's name for the architecture.
	Name string

	// Token is the value of seccomp_data.arch for system calls made through
	// this architecture.
	Token uint32

	// GOARCH is the matching Go architecture, if any.
	GOARCH string
}

// String implements fmt.Stringer.
func (a Arch) String() string {
	return fmt.Sprintf("%s (%#x)", a.Name, a.Token)
}

var arches = []Arch{
	{Name: "i386", Token: linux.AUDIT_ARCH_I386, GOARCH: "386"},
	{Name: "x86_64", Token: linux.AUDIT_ARCH_X86_64, GOARCH: "amd64"},
	{Name: "arm", Token: linux.AUDIT_ARCH_ARM, GOARCH: "arm"},
	{Name: "aarch64", Token: linux.AUDIT_ARCH_AARCH64, GOARCH: "arm64"},
	{Name: "ppc64le", Token: linux.AUDIT_ARCH_PPC64LE, GOARCH: "ppc64le"},
	{Name: "riscv64", Token: linux.AUDIT_ARCH_RISCV64, GOARCH: "riscv64"},
	{Name: "s390x", Token: linux.AUDIT_ARCH_S390X, GOARCH: "s390x"},
}

// Arches returns the well-known architectures.
func Arches() []Arch {
	return append([]Arch(nil), arches...)
}

// LookupArch finds an architecture by its kernel or Go name.
func LookupArch(name string) (Arch, bool) {
	name = strings.ToLower(name)
	for _, a := range arches {
		if a.Name == name || a.GOARCH == name {
			return a, true
		}
	}
	return Arch{}, false
}

// ArchName returns the name of token, or "unknown".
func ArchName(token uint32) string {
	for _, a := range arches {
		if a.Token == token {
			return a.Name
		}
	}
	return "unknown"
}

// NativeArch returns the architecture of the running binary.
func NativeArch() (Arch, bool) {
	for _, a := range arches {
		if a.GOARCH == runtime.GOARCH {
			return a, true
		}
	}
	return Arch{}, false
}
