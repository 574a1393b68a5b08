//go:build !windows

// Package stderr captures writes from C audio libraries (ALSA) that go
// straight to file descriptor 2, bypassing os.Stderr. Captured lines are
// forwarded into the structured log instead of interleaving raw with it;
// the logger itself must write to Original().
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

var (
	origStderr *os.File
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
)

// Start begins capturing fd 2. Must be called before the speaker is
// initialized. The program can continue without capture on error; native
// noise then just goes to the terminal.
func Start() error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origFd, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origFd)
		r.Close()
		w.Close()
		return err
	}

	origStderr = os.NewFile(uintptr(origFd), "stderr")
	pipeRead = r
	pipeWrite = w
	started = true

	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				log.Debug().Str("source", "native").Msg(line)
			}
		}
	}()

	return nil
}

// Original returns the real stderr, valid whether or not capture started.
// The logger writes here so its output is not captured back.
func Original() *os.File {
	if origStderr != nil {
		return origStderr
	}
	return os.Stderr
}

// Stop restores fd 2. Call on program exit.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(int(origStderr.Fd()), int(os.Stderr.Fd()))

	pipeWrite.Close()
	pipeRead.Close()
	started = false
}
