// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package logger

import "fmt"

// Logger queues formatted lines on a channel so the consumer (a log view, a
// file writer, a test) drains them on its own schedule. When nobody drains
// the channel the oldest line is discarded instead of blocking the caller;
// IPC delivery goroutines log through here and must never stall.
type Logger struct {
	Prints chan string
}

func Init() *Logger {
	return &Logger{make(chan string, 100)}
}

// Discard returns a logger that drops everything. Default for tests and for
// callers that pass no logger at all.
func Discard() *Logger {
	l := Init()
	go func() {
		for range l.Prints {
		}
	}()
	return l
}

func (l *Logger) Print(s string) {
	select {
	case l.Prints <- s:
	default:
		// full: drop the oldest line, then try once more
		select {
		case <-l.Prints:
		default:
		}
		select {
		case l.Prints <- s:
		default:
		}
	}
}

func (l *Logger) Printf(s string, as ...interface{}) {
	l.Print(fmt.Sprintf(s, as...))
}

func (l *Logger) PrintError(source string, err error) {
	l.Printf("Error(%s) -> %s", source, err.Error())
}
