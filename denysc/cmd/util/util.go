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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"fmt"
	"io"
	"os"

	"gvisor.dev/denysc/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages are
// consumed by the user of denysc, while the debug log belongs to the developer.
var ErrorLogger io.Writer = os.Stderr

// Errorf logs an error to the debug log and writes it to ErrorLogger.
func Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warningf("FATAL ERROR: %s", msg)
	fmt.Fprintln(ErrorLogger, msg)
}

// Fatalf logs an error, writes it to ErrorLogger, and exits with status 1.
// It is only used before a subcommand runs.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	os.Exit(1)
}
