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

// Package sandbox launches a program with a deny-one seccomp filter
// installed.
//
// Launch performs three steps on a single OS thread, in order: it sets
// no_new_privs, installs the filter on every thread of the process, and
// replaces the process image with the target program. The filter is
// inherited across execve, so the target runs with one system call denied.
package sandbox

import (
	"fmt"
	"runtime"

	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/log"
	"gvisor.dev/denysc/pkg/seccomp"
)

// Kernel is the set of kernel operations Launch depends on.
type Kernel interface {
	// SetNoNewPrivs sets no_new_privs on the calling thread.
	SetNoNewPrivs() error

	// SetFilter installs instrs as a seccomp filter on every thread.
	SetFilter(instrs []linux.BPFInstruction) error

	// Exec replaces the process image. It only returns on failure.
	Exec(path string, argv, envv []string) error
}

// Step identifies a stage of Launch.
type Step int

const (
	// StepNoNewPrivs sets no_new_privs.
	StepNoNewPrivs Step = iota

	// StepInstall installs the seccomp filter.
	StepInstall

	// StepExec executes the target program.
	StepExec
)

// String implements fmt.Stringer.
func (s Step) String() string {
	switch s {
	case StepNoNewPrivs:
		return "prctl(PR_SET_NO_NEW_PRIVS)"
	case StepInstall:
		return "seccomp(SECCOMP_SET_MODE_FILTER)"
	case StepExec:
		return "execve"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Error is returned by Launch when a step fails.
type Error struct {
	// Step is the step that failed. Later steps were not attempted.
	Step Step

	// Path is the program being executed.
	Path string

	// Err is the underlying error, usually a unix.Errno.
	Err error
}

// Error implements error.Error.
func (e *Error) Error() string {
	if e.Step == StepExec {
		return fmt.Sprintf("%v %q: %v", e.Step, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Request describes a program to launch.
type Request struct {
	// Arch is the AUDIT_ARCH_* token the filter accepts.
	Arch uint32

	// Syscall is the number of the denied system call.
	Syscall uint32

	// Errno is the error returned by the denied system call. Only the low
	// 16 bits are used.
	Errno uint32

	// Path is the program to execute. It is not searched for in PATH.
	Path string

	// Argv is the argument vector of the program, including argv[0].
	Argv []string

	// Env is the environment of the program.
	Env []string
}

// privileged is a thread that has not yet given up privileges.
type privileged struct {
	k Kernel
}

// unprivileged is a thread with no_new_privs set.
type unprivileged struct {
	k Kernel
}

// filtered is a process with the filter installed.
type filtered struct {
	k Kernel
}

func (p privileged) dropPrivileges() (unprivileged, error) {
	if err := p.k.SetNoNewPrivs(); err != nil {
		return unprivileged{}, err
	}
	return unprivileged{k: p.k}, nil
}

func (u unprivileged) install(prog seccomp.Program) (filtered, error) {
	if err := u.k.SetFilter(prog.BPF()); err != nil {
		return filtered{}, err
	}
	return filtered{k: u.k}, nil
}

func (f filtered) exec(path string, argv, envv []string) error {
	return f.k.Exec(path, argv, envv)
}

// Launch installs a filter denying req.Syscall and executes req.Path. On
// success with a real kernel it does not return. All errors are of type
// *Error.
func Launch(k Kernel, req Request) error {
	// no_new_privs is per thread until the filter is installed with TSYNC.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prog := seccomp.DenyOne(req.Arch, req.Syscall, req.Errno)
	log.Infof("Denying syscall %d on %s (%#x) with errno %d", req.Syscall, seccomp.ArchName(req.Arch), req.Arch, req.Errno&linux.SECCOMP_RET_DATA)
	if log.IsLogging(log.Debug) {
		log.Debugf("Seccomp program:\n%s", prog)
	}

	unpriv, err := privileged{k: k}.dropPrivileges()
	if err != nil {
		return &Error{Step: StepNoNewPrivs, Path: req.Path, Err: err}
	}
	f, err := unpriv.install(prog)
	if err != nil {
		return &Error{Step: StepInstall, Path: req.Path, Err: err}
	}
	log.Infof("Executing %q %q", req.Path, req.Argv)
	if err := f.exec(req.Path, req.Argv, req.Env); err != nil {
		return &Error{Step: StepExec, Path: req.Path, Err: err}
	}
	return nil
}
