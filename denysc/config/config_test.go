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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gvisor.dev/denysc/denysc/flag"
	"gvisor.dev/denysc/pkg/log"
)

func TestDefault(t *testing.T) {
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	// All defaults doesn't require setting flags.
	if flags := c.ToFlags(); len(flags) > 0 {
		t.Errorf("default flags not set correctly for: %s", flags)
	}
	if want := "text"; c.DebugLogFormat != want {
		t.Errorf("DebugLogFormat=%v, want: %v", c.DebugLogFormat, want)
	}
}

func TestFromFlags(t *testing.T) {
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	if err := testFlags.Parse([]string{"--debug", "--debug-log=/tmp/x/", "--debug-log-format=json"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Debug:          true,
		DebugLog:       "/tmp/x/",
		DebugLogFormat: "json",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("NewFromFlags() mismatch (-want +got):\n%s", diff)
	}
	wantFlags := []string{"--debug=true", "--debug-log=/tmp/x/", "--debug-log-format=json"}
	if diff := cmp.Diff(wantFlags, c.ToFlags()); diff != "" {
		t.Errorf("ToFlags() mismatch (-want +got):\n%s", diff)
	}
}

func TestLogFlags(t *testing.T) {
	for _, test := range []struct {
		name string
		args []string
		want string
	}{
		{name: "defaults", want: "Config flags: all defaults\n"},
		{name: "set", args: []string{"--debug", "--debug-log-format=json"}, want: "Config flags: --debug=true --debug-log-format=json\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
			RegisterFlags(testFlags)
			if err := testFlags.Parse(test.args); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			c, err := NewFromFlags(testFlags)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			c.logTo(&log.BasicLogger{Level: log.Info, Emitter: &log.Writer{Next: &buf}})
			if !strings.Contains(buf.String(), test.want) {
				t.Errorf("log output %q does not contain %q", buf.String(), test.want)
			}
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	if err := testFlags.Lookup("debug-log-format").Value.Set("json-k8s"); err != nil {
		t.Fatalf("Flag set: %v", err)
	}
	if _, err := NewFromFlags(testFlags); err == nil || !strings.Contains(err.Error(), "debug-log-format") {
		t.Errorf("NewFromFlags() = %v, want debug-log-format error", err)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "denysc.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestApplyFile(t *testing.T) {
	path := writeFile(t, `
[flags]
debug = "true"
debug-log-format = "json"
`)
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	if err := testFlags.Parse([]string{"--config=" + path, "--debug-log-format=text"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := ApplyFile(testFlags); err != nil {
		t.Fatalf("ApplyFile failed: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Debug {
		t.Errorf("Debug=false, want true from config file")
	}
	if want := "text"; c.DebugLogFormat != want {
		t.Errorf("DebugLogFormat=%v, want command line value %v", c.DebugLogFormat, want)
	}
	if c.ConfigFile != path {
		t.Errorf("ConfigFile=%v, want %v", c.ConfigFile, path)
	}
}

func TestApplyFileErrors(t *testing.T) {
	for _, test := range []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown flag",
			content: "[flags]\nno-such-flag = \"1\"\n",
			want:    "not found",
		},
		{
			name:    "bad value",
			content: "[flags]\ndebug = \"maybe\"\n",
			want:    "error setting flag",
		},
		{
			name:    "recursive",
			content: "[flags]\nconfig = \"/etc/other.toml\"\n",
			want:    "can't be set",
		},
		{
			name:    "syntax",
			content: "[flags\n",
			want:    "decode config file",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, test.content)
			testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
			RegisterFlags(testFlags)
			if err := testFlags.Parse([]string{"--config=" + path}); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			err := ApplyFile(testFlags)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("ApplyFile() = %v, want error containing %q", err, test.want)
			}
		})
	}
}

func TestApplyFileNone(t *testing.T) {
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	if err := ApplyFile(testFlags); err != nil {
		t.Errorf("ApplyFile() without --config = %v, want nil", err)
	}
}
