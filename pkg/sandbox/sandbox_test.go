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

package sandbox

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"gvisor.dev/denysc/pkg/abi/linux"
	"gvisor.dev/denysc/pkg/seccomp"
)

// fakeKernel records calls and fails the configured step.
type fakeKernel struct {
	calls  []string
	filter []linux.BPFInstruction
	path   string
	argv   []string
	envv   []string

	failNoNewPrivs error
	failFilter     error
	failExec       error
}

func (k *fakeKernel) SetNoNewPrivs() error {
	k.calls = append(k.calls, "no_new_privs")
	return k.failNoNewPrivs
}

func (k *fakeKernel) SetFilter(instrs []linux.BPFInstruction) error {
	k.calls = append(k.calls, "filter")
	k.filter = instrs
	return k.failFilter
}

func (k *fakeKernel) Exec(path string, argv, envv []string) error {
	k.calls = append(k.calls, "exec")
	k.path, k.argv, k.envv = path, argv, envv
	return k.failExec
}

var testRequest = Request{
	Arch:    linux.AUDIT_ARCH_X86_64,
	Syscall: 0,
	Errno:   1,
	Path:    "/bin/cat",
	Argv:    []string{"/bin/cat", "/etc/hostname"},
	Env:     []string{"HOME=/root"},
}

func TestLaunch(t *testing.T) {
	k := &fakeKernel{}
	if err := Launch(k, testRequest); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if diff := cmp.Diff([]string{"no_new_privs", "filter", "exec"}, k.calls); diff != "" {
		t.Errorf("kernel calls mismatch (-want +got):\n%s", diff)
	}
	want := seccomp.DenyOne(testRequest.Arch, testRequest.Syscall, testRequest.Errno).BPF()
	if diff := cmp.Diff(want, k.filter); diff != "" {
		t.Errorf("installed filter mismatch (-want +got):\n%s", diff)
	}
	if k.path != testRequest.Path {
		t.Errorf("Exec path = %q, want %q", k.path, testRequest.Path)
	}
	if diff := cmp.Diff(testRequest.Argv, k.argv); diff != "" {
		t.Errorf("Exec argv mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testRequest.Env, k.envv); diff != "" {
		t.Errorf("Exec envv mismatch (-want +got):\n%s", diff)
	}
}

func TestLaunchFailures(t *testing.T) {
	for _, test := range []struct {
		name   string
		kernel *fakeKernel
		step   Step
		calls  []string
		errno  unix.Errno
		msg    string
	}{
		{
			name:   "no_new_privs",
			kernel: &fakeKernel{failNoNewPrivs: unix.EINVAL},
			step:   StepNoNewPrivs,
			calls:  []string{"no_new_privs"},
			errno:  unix.EINVAL,
			msg:    "prctl(PR_SET_NO_NEW_PRIVS): invalid argument",
		},
		{
			name:   "install",
			kernel: &fakeKernel{failFilter: unix.EACCES},
			step:   StepInstall,
			calls:  []string{"no_new_privs", "filter"},
			errno:  unix.EACCES,
			msg:    "seccomp(SECCOMP_SET_MODE_FILTER): permission denied",
		},
		{
			name:   "exec",
			kernel: &fakeKernel{failExec: unix.ENOENT},
			step:   StepExec,
			calls:  []string{"no_new_privs", "filter", "exec"},
			errno:  unix.ENOENT,
			msg:    `execve "/bin/cat": no such file or directory`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := Launch(test.kernel, testRequest)
			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("Launch() = %v, want *Error", err)
			}
			if serr.Step != test.step {
				t.Errorf("Step = %v, want %v", serr.Step, test.step)
			}
			if !errors.Is(err, test.errno) {
				t.Errorf("Launch() = %v, want to wrap %v", err, test.errno)
			}
			if got := err.Error(); got != test.msg {
				t.Errorf("Error() = %q, want %q", got, test.msg)
			}
			if diff := cmp.Diff(test.calls, test.kernel.calls); diff != "" {
				t.Errorf("kernel calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStepString(t *testing.T) {
	if got, want := Step(7).String(), "Step(7)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
