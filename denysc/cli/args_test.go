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

package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gvisor.dev/denysc/denysc/config"
	"gvisor.dev/denysc/denysc/flag"
)

func newFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("denysc", flag.ContinueOnError)
	config.RegisterFlags(fs)
	return fs
}

func TestImplicitArgs(t *testing.T) {
	names := map[string]bool{"exec": true, "dump": true, "help": true}
	for _, test := range []struct {
		name    string
		args    []string
		want    []string
		wantCmd []string
	}{
		{
			name:    "none",
			want:    []string{"exec", "--"},
			wantCmd: []string{"exec", "--"},
		},
		{
			name:    "command",
			args:    []string{"dump", "-o", "json", "0", "x86_64"},
			want:    []string{"dump", "-o", "json", "0", "x86_64"},
			wantCmd: []string{"dump", "-o", "json", "0", "x86_64"},
		},
		{
			name:    "explicit exec",
			args:    []string{"exec", "--", "0", "x86_64", "1", "/bin/true"},
			want:    []string{"exec", "--", "0", "x86_64", "1", "/bin/true"},
			wantCmd: []string{"exec", "--", "0", "x86_64", "1", "/bin/true"},
		},
		{
			name:    "number",
			args:    []string{"59", "0xC000003E", "1", "/bin/true"},
			want:    []string{"exec", "--", "59", "0xC000003E", "1", "/bin/true"},
			wantCmd: []string{"exec", "--", "59", "0xC000003E", "1", "/bin/true"},
		},
		{
			name:    "child flags",
			args:    []string{"0", "x86_64", "1", "/bin/sh", "-c", "x"},
			want:    []string{"exec", "--", "0", "x86_64", "1", "/bin/sh", "-c", "x"},
			wantCmd: []string{"exec", "--", "0", "x86_64", "1", "/bin/sh", "-c", "x"},
		},
		{
			name:    "negative number",
			args:    []string{"-1", "0xC000003E", "1", "/bin/true"},
			want:    []string{"exec", "--", "-1", "0xC000003E", "1", "/bin/true"},
			wantCmd: []string{"exec", "--", "-1", "0xC000003E", "1", "/bin/true"},
		},
		{
			name:    "global flags",
			args:    []string{"--debug", "--debug-log", "/tmp/x/", "-1", "x86_64", "1", "/bin/true"},
			want:    []string{"--debug", "--debug-log", "/tmp/x/", "exec", "--", "-1", "x86_64", "1", "/bin/true"},
			wantCmd: []string{"exec", "--", "-1", "x86_64", "1", "/bin/true"},
		},
		{
			name:    "flag with value",
			args:    []string{"--debug-log-format=json", "help"},
			want:    []string{"--debug-log-format=json", "help"},
			wantCmd: []string{"help"},
		},
		{
			name:    "terminator",
			args:    []string{"--alsologtostderr", "--", "-1", "x86_64", "1", "/bin/true"},
			want:    []string{"--alsologtostderr", "exec", "--", "-1", "x86_64", "1", "/bin/true"},
			wantCmd: []string{"exec", "--", "-1", "x86_64", "1", "/bin/true"},
		},
		{
			name:    "terminator before command",
			args:    []string{"--", "help"},
			want:    []string{"--", "help"},
			wantCmd: []string{"help"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := implicitArgs(newFlags(), names, test.args)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("implicitArgs(%q) mismatch (-want +got):\n%s", test.args, diff)
			}
			fs := newFlags()
			if err := fs.Parse(got); err != nil {
				t.Fatalf("Parse(%q) failed: %v", got, err)
			}
			if diff := cmp.Diff(test.wantCmd, fs.Args()); diff != "" {
				t.Errorf("Args() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImplicitArgsDanglingFlag(t *testing.T) {
	args := []string{"--debug-log"}
	got := implicitArgs(newFlags(), map[string]bool{"exec": true}, args)
	if diff := cmp.Diff(args, got); diff != "" {
		t.Errorf("implicitArgs(%q) mismatch (-want +got):\n%s", args, diff)
	}
}
