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

package linux

// Audit numbers identifying the calling convention of a system call, from
// <linux/audit.h>. They are what seccomp_data.arch holds.
const (
	__AUDIT_ARCH_64BIT = 0x80000000
	__AUDIT_ARCH_LE    = 0x40000000

	AUDIT_ARCH_I386    = 0x3 | __AUDIT_ARCH_LE
	AUDIT_ARCH_ARM     = 0x28 | __AUDIT_ARCH_LE
	AUDIT_ARCH_X86_64  = 0x3e | __AUDIT_ARCH_64BIT | __AUDIT_ARCH_LE
	AUDIT_ARCH_PPC64LE = 0x15 | __AUDIT_ARCH_64BIT | __AUDIT_ARCH_LE
	AUDIT_ARCH_S390X   = 0x16 | __AUDIT_ARCH_64BIT
	AUDIT_ARCH_AARCH64 = 0xb7 | __AUDIT_ARCH_64BIT | __AUDIT_ARCH_LE
	AUDIT_ARCH_RISCV64 = 0xf3 | __AUDIT_ARCH_64BIT | __AUDIT_ARCH_LE
)

// __X32_SYSCALL_BIT is set in the system call number of calls made through
// the x32 ABI, which shares AUDIT_ARCH_X86_64 with the native x86-64 ABI.
const __X32_SYSCALL_BIT = 0x40000000

// X32SyscallBit is the exported name of __X32_SYSCALL_BIT.
const X32SyscallBit = __X32_SYSCALL_BIT
