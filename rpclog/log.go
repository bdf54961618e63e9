// Package rpclog defines the small leveled-logger boundary the core depends
// on (§6: "Logger exposes leveled log sinks ... the core takes it as a
// dependency ... but does not define format"). github.com/hashicorp/go-hclog
// (pulled in via this pack's nabbar-golib dependency tree as its structured
// logging backend) satisfies this interface directly, so the default
// construction just wraps hclog; swapping backends needs no core change.
package rpclog

import "github.com/hashicorp/go-hclog"

// Logger is the leveled-logging boundary every core component takes as a
// dependency.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Named(name string) Logger
}

type hclogAdapter struct {
	hclog.Logger
}

func (a hclogAdapter) Named(name string) Logger {
	return hclogAdapter{a.Logger.Named(name)}
}

// New builds a Logger backed by hclog, named for the given component.
func New(name string) Logger {
	return hclogAdapter{hclog.New(&hclog.LoggerOptions{Name: name, Level: hclog.Info})}
}

// NoOp is a Logger that discards everything, useful in tests that don't
// care about log output.
func NoOp() Logger { return noOp{} }

type noOp struct{}

func (noOp) Trace(string, ...any) {}
func (noOp) Debug(string, ...any) {}
func (noOp) Info(string, ...any)  {}
func (noOp) Warn(string, ...any)  {}
func (noOp) Error(string, ...any) {}
func (n noOp) Named(string) Logger { return n }
