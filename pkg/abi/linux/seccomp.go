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

import "fmt"

// Seccomp constants taken from <linux/seccomp.h>.
const (
	SECCOMP_MODE_NONE   = 0
	SECCOMP_MODE_STRICT = 1
	SECCOMP_MODE_FILTER = 2

	SECCOMP_RET_ACTION_FULL = 0xffff0000
	SECCOMP_RET_ACTION      = 0x7fff0000
	SECCOMP_RET_DATA        = 0x0000ffff

	SECCOMP_SET_MODE_STRICT  = 0
	SECCOMP_SET_MODE_FILTER  = 1
	SECCOMP_GET_ACTION_AVAIL = 2

	SECCOMP_FILTER_FLAG_TSYNC = 1
)

// BPFAction is an action returned by a seccomp filter.
type BPFAction uint32

// BPFAction definitions.
const (
	SECCOMP_RET_KILL_PROCESS BPFAction = 0x80000000
	SECCOMP_RET_KILL_THREAD  BPFAction = 0x00000000
	SECCOMP_RET_TRAP         BPFAction = 0x00030000
	SECCOMP_RET_ERRNO        BPFAction = 0x00050000
	SECCOMP_RET_USER_NOTIF   BPFAction = 0x7fc00000
	SECCOMP_RET_TRACE        BPFAction = 0x7ff00000
	SECCOMP_RET_LOG          BPFAction = 0x7ffc0000
	SECCOMP_RET_ALLOW        BPFAction = 0x7fff0000
)

// SECCOMP_RET_KILL is the historical name of SECCOMP_RET_KILL_THREAD.
const SECCOMP_RET_KILL = SECCOMP_RET_KILL_THREAD

// String returns a human-readable representation of the action.
func (a BPFAction) String() string {
	switch a & SECCOMP_RET_ACTION_FULL {
	case SECCOMP_RET_KILL_PROCESS:
		return "kill process"
	case SECCOMP_RET_KILL_THREAD:
		return "kill thread"
	case SECCOMP_RET_TRAP:
		return fmt.Sprintf("trap (%d)", a.Data())
	case SECCOMP_RET_ERRNO:
		return fmt.Sprintf("errno(%d)", a.Data())
	case SECCOMP_RET_USER_NOTIF:
		return "user notify"
	case SECCOMP_RET_TRACE:
		return fmt.Sprintf("trace (%d)", a.Data())
	case SECCOMP_RET_LOG:
		return "log"
	case SECCOMP_RET_ALLOW:
		return "allow"
	}
	return fmt.Sprintf("invalid action: %#x", uint32(a))
}

// Action returns the action part of the return value, without its data.
func (a BPFAction) Action() BPFAction {
	return a & SECCOMP_RET_ACTION_FULL
}

// Data returns the SECCOMP_RET_DATA portion of the action.
func (a BPFAction) Data() uint16 {
	return uint16(a & SECCOMP_RET_DATA)
}

// WithReturnCode sets the lower 16 bits of the action to the given value.
func (a BPFAction) WithReturnCode(code uint16) BPFAction {
	return a.Action() | BPFAction(code)
}

// SeccompData is struct seccomp_data from <linux/seccomp.h>.
//
// It is the input a filter is evaluated against, in native byte order.
type SeccompData struct {
	// Nr is the system call number.
	Nr int32

	// Arch is an AUDIT_ARCH_* value.
	Arch uint32

	// InstructionPointer is the address of the system call instruction.
	InstructionPointer uint64

	// Args contains the first 6 system call arguments.
	Args [6]uint64
}

// Offsets of SeccompData fields, as seen by BPF_LD|BPF_ABS loads.
const (
	SeccompDataOffsetNR   = 0
	SeccompDataOffsetArch = 4
	SeccompDataOffsetIPLo = 8
	SeccompDataOffsetIPHi = 12
	SeccompDataOffsetArgs = 16

	// SizeOfSeccompData is the size of SeccompData in bytes.
	SizeOfSeccompData = 64
)
