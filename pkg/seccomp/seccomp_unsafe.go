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
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"gvisor.dev/denysc/pkg/abi/linux"
)

// SetNoNewPrivs sets no_new_privs on the calling thread. See prctl(2).
//
// no_new_privs is per thread until SetFilter propagates it, so the caller
// must keep the goroutine locked to its OS thread until SetFilter returns.
func SetNoNewPrivs() error {
	if _, _, errno := unix.RawSyscall6(unix.SYS_PRCTL, linux.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0, 0); errno != 0 {
		return errno
	}
	return nil
}

// NoNewPrivs reports whether no_new_privs is set on the calling thread.
func NoNewPrivs() (bool, error) {
	r, _, errno := unix.RawSyscall6(unix.SYS_PRCTL, linux.PR_GET_NO_NEW_PRIVS, 0, 0, 0, 0, 0)
	if errno != 0 {
		return false, errno
	}
	return r == 1, nil
}

// Mode returns the seccomp mode of the calling thread, one of
// linux.SECCOMP_MODE_*.
func Mode() (int, error) {
	r, _, errno := unix.RawSyscall6(unix.SYS_PRCTL, linux.PR_GET_SECCOMP, 0, 0, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

// SetFilter installs the given BPF program on every thread of the process.
// SetNoNewPrivs must have been called on the same OS thread first.
//
// Go programs are multithreaded, so the filter is installed with
// SECCOMP_FILTER_FLAG_TSYNC, which also propagates no_new_privs. See
// kernel/seccomp.c:seccomp_sync_threads().
func SetFilter(instrs []linux.BPFInstruction) error {
	if len(instrs) == 0 {
		return unix.EINVAL
	}
	sockProg := sockFprog(instrs)
	tid, errno := seccomp(linux.SECCOMP_SET_MODE_FILTER, linux.SECCOMP_FILTER_FLAG_TSYNC, unsafe.Pointer(&sockProg))
	runtime.KeepAlive(instrs)
	if errno != 0 {
		return errno
	}
	// "On error, if SECCOMP_FILTER_FLAG_TSYNC was used, the return value is
	// the ID of the thread that caused the synchronization failure. (This ID
	// is a kernel thread ID of the type returned by clone(2) and gettid(2).)"
	// - seccomp(2)
	if tid != 0 {
		return fmt.Errorf("couldn't synchronize filter to TID %d", tid)
	}
	return nil
}

// sockFprog returns the struct sock_fprog describing instrs. instrs must not
// be empty and must outlive any use of the result.
//
// The kernel struct has a pointer after a 16-bit length, so its padding
// depends on the word size. unix.SockFprog carries the per-arch layout.
func sockFprog(instrs []linux.BPFInstruction) unix.SockFprog {
	return unix.SockFprog{
		Len:    uint16(len(instrs)),
		Filter: (*unix.SockFilter)(unsafe.Pointer(&instrs[0])),
	}
}

// IsActionAvailable reports whether the kernel supports action a.
func IsActionAvailable(a linux.BPFAction) (bool, error) {
	action := uint32(a.Action())
	if _, errno := seccomp(linux.SECCOMP_GET_ACTION_AVAIL, 0, unsafe.Pointer(&action)); errno != 0 {
		// EINVAL: SECCOMP_GET_ACTION_AVAIL not in this kernel yet.
		// EOPNOTSUPP: the action is not supported.
		if errno == unix.EINVAL || errno == unix.EOPNOTSUPP {
			return false, nil
		}
		return false, errno
	}
	return true, nil
}

// seccomp calls seccomp(2).
//
//go:nosplit
func seccomp(op, flags uint32, ptr unsafe.Pointer) (uintptr, unix.Errno) {
	n, _, errno := unix.RawSyscall(unix.SYS_SECCOMP, uintptr(op), uintptr(flags), uintptr(ptr))
	return n, errno
}
