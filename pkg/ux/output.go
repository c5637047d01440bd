// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	luxlog "github.com/luxfi/log"
)

// Logger is the process-wide user output, set once by NewUserLog.
var Logger *UserLog

// UserLog writes command output to the user and mirrors notable lines to
// the file log.
type UserLog struct {
	log    luxlog.Logger
	mu     sync.Mutex
	writer io.Writer
}

// NewUserLog installs the global Logger. Later calls are ignored.
func NewUserLog(log luxlog.Logger, userwriter io.Writer) {
	if Logger == nil {
		Logger = New(log, userwriter)
	}
}

func New(log luxlog.Logger, w io.Writer) *UserLog {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &UserLog{log: log, writer: w}
}

func (ul *UserLog) Writer() io.Writer {
	return ul.writer
}

func (ul *UserLog) println(s string) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	_, _ = fmt.Fprintln(ul.writer, s)
}

// PrintToUser prints to the user only; the file log does not get a copy.
func (ul *UserLog) PrintToUser(msg string, args ...interface{}) {
	ul.println(fmt.Sprintf(msg, args...))
}

func (ul *UserLog) Info(msg string, args ...interface{}) {
	ul.log.Info(fmt.Sprintf(msg, args...))
}

func (ul *UserLog) Error(msg string, args ...interface{}) {
	ul.log.Error(fmt.Sprintf(msg, args...))
}

func (ul *UserLog) PrintLineSeparator() {
	ul.println(strings.Repeat("=", 42))
}

func (ul *UserLog) RedXToUser(msg string, args ...interface{}) {
	line := "✗ " + fmt.Sprintf(msg, args...)
	ul.println(line)
	ul.log.Error(line)
}

func (ul *UserLog) GreenCheckmarkToUser(msg string, args ...interface{}) {
	line := "✓ " + fmt.Sprintf(msg, args...)
	ul.println(line)
	ul.log.Info(line)
}

// PrintError prints msg with an ERROR prefix and logs it.
func (ul *UserLog) PrintError(msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)
	ul.println("\nERROR: " + formatted + "\n")
	ul.log.Error(formatted)
}

// ConvertToStringWithThousandSeparator renders 1234567 as 1_234_567.
func ConvertToStringWithThousandSeparator(input uint64) string {
	p := message.NewPrinter(language.English)
	s := p.Sprintf("%d", input)
	return strings.ReplaceAll(s, ",", "_")
}
