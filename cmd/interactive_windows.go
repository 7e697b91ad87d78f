//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// consoleMode remembers a console handle's mode before the selector
// changed it.
type consoleMode struct {
	h    windows.Handle
	prev uint32
}

// addMode ORs flags into f's console mode. It returns false when f is not
// a console (redirected or piped).
func addMode(f *os.File, flags uint32) (consoleMode, bool) {
	h := windows.Handle(f.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return consoleMode{}, false
	}
	if err := windows.SetConsoleMode(h, mode|flags); err != nil {
		return consoleMode{}, false
	}
	return consoleMode{h: h, prev: mode}, true
}

// enableVT switches stdin to VT input, so arrow keys arrive as escape
// sequences, and stdout to VT processing for the selector's redraws. The
// returned func puts both modes back.
func enableVT() (restore func()) {
	var changed []consoleMode
	if m, ok := addMode(os.Stdin, windows.ENABLE_VIRTUAL_TERMINAL_INPUT); ok {
		changed = append(changed, m)
	}
	if m, ok := addMode(os.Stdout, windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); ok {
		changed = append(changed, m)
	}
	return func() {
		for _, m := range changed {
			windows.SetConsoleMode(m.h, m.prev)
		}
	}
}
