package chart

import (
	"context"
	"sync"
)

// FakeCall records one chart operation for test assertions.
type FakeCall struct {
	Op         string
	Namespace  string
	Release    string
	ChartRef   string
	Version    string
	ValuesFile string
}

// Fake is an in-memory Manager for tests.
type Fake struct {
	mu        sync.Mutex
	installed map[string]bool
	Calls     []FakeCall

	// FailOn, when set, makes the named operation return this error.
	FailOn map[string]error
}

// NewFake creates an empty fake chart manager.
func NewFake() *Fake {
	return &Fake{
		installed: make(map[string]bool),
		FailOn:    make(map[string]error),
	}
}

func releaseKey(namespace, release string) string {
	return namespace + "/" + release
}

// MarkInstalled seeds an installed release.
func (f *Fake) MarkInstalled(namespace, release string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed[releaseKey(namespace, release)] = true
}

func (f *Fake) IsInstalled(ctx context.Context, namespace, release string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed[releaseKey(namespace, release)], nil
}

func (f *Fake) record(call FakeCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if err := f.FailOn[call.Op]; err != nil {
		return err
	}
	switch call.Op {
	case "install", "upgrade":
		f.installed[releaseKey(call.Namespace, call.Release)] = true
	case "uninstall":
		delete(f.installed, releaseKey(call.Namespace, call.Release))
	}
	return nil
}

func (f *Fake) Install(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error {
	return f.record(FakeCall{Op: "install", Namespace: namespace, Release: release, ChartRef: chartRef, Version: version, ValuesFile: valuesFile})
}

func (f *Fake) Upgrade(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error {
	return f.record(FakeCall{Op: "upgrade", Namespace: namespace, Release: release, ChartRef: chartRef, Version: version, ValuesFile: valuesFile})
}

func (f *Fake) Uninstall(ctx context.Context, namespace, release string) error {
	return f.record(FakeCall{Op: "uninstall", Namespace: namespace, Release: release})
}
