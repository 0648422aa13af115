// Package debug installs a SIGUSR1 trap that dumps a stack trace, heap
// profile, and CPU profile on demand — useful for diagnosing a stuck run
// without restarting it.
package debug

import (
	"bytes"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"
)

const (
	cpuProfileDuration = 10 * time.Second
	maxStackSize       = 256 * 1024 * 1024
)

// HandleSignals blocks, dumping profile files to a fresh temp directory
// (prefixed with name) each time the process receives SIGUSR1. Intended to
// run in its own goroutine for the lifetime of the process.
func HandleSignals(name string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGUSR1)

	for range c {
		dir, err := os.MkdirTemp("", name)
		if err != nil {
			continue
		}
		DumpFiles(dir)
	}
}

// DumpFiles writes stack, mem.prof, and cpu.prof into dir.
func DumpFiles(dir string) {
	dumpStackTrace(dir)
	dumpMemoryProfile(dir)
	dumpCPUProfile(dir)
}

func dumpStackTrace(dir string) {
	f, err := os.Create(filepath.Join(dir, "stack"))
	if err != nil {
		return
	}
	defer f.Close()

	size := 1024 * 1024
	var buf []byte
	for {
		buf = make([]byte, size)
		n := runtime.Stack(buf, true)
		if n < size {
			f.Write(buf[:n])
			return
		}
		size *= 2
		if size >= maxStackSize {
			return
		}
	}
}

func dumpMemoryProfile(dir string) {
	f, err := os.Create(filepath.Join(dir, "mem.prof"))
	if err != nil {
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	runtime.GC()
	if err := pprof.WriteHeapProfile(&buf); err == nil {
		f.Write(buf.Bytes())
	}
}

func dumpCPUProfile(dir string) {
	f, err := os.Create(filepath.Join(dir, "cpu.prof"))
	if err != nil {
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err == nil {
		time.Sleep(cpuProfileDuration)
		pprof.StopCPUProfile()
		f.Write(buf.Bytes())
	}
}
