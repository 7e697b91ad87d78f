package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"

	"celltowers/internal/aggregate"
	"celltowers/internal/cleaner"
)

// selectorItems builds the selector menu: every operator in mix, then every
// configured circle, including circles left empty by the trim.
func selectorItems(mix []aggregate.MixRow) ([]query, []string) {
	var items []query
	var lines []string
	for _, op := range aggregate.Operators(mix) {
		items = append(items, query{kind: "operator", value: op})
		lines = append(lines, "Operator  "+op)
	}
	for _, c := range cleaner.CircleSpecs() {
		items = append(items, query{kind: "circle", value: c.Circle})
		lines = append(lines, "Circle    "+c.Circle)
	}
	return items, lines
}

// interactiveSelect lets the user move through operators and circles with
// arrow keys and press Enter to view the selection's technology mix.
func interactiveSelect(mix []aggregate.MixRow) {
	items, lines := selectorItems(mix)
	if len(items) == 0 {
		return
	}

	defer enableVT()()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer func() { term.Restore(fd, oldState) }()

	reader := bufio.NewReader(os.Stdin)

	selected := 0

	redraw := func() {
		// Clear screen (ANSI reset to top + clear screen)
		fmt.Print("\033[H\033[2J")
		for i, l := range lines {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			// Raw mode needs an explicit carriage return.
			fmt.Print(prefix + l + "\r\n")
		}
		fmt.Print("(↑/↓ to navigate, Enter to view mix, Esc to quit)\r\n")
	}

	show := func() bool {
		term.Restore(fd, oldState)
		fmt.Println()
		renderQuery(os.Stdout, mix, items[selected])

		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		state, err := term.MakeRaw(fd)
		if err != nil {
			return false
		}
		oldState = state
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	move := func(delta int) {
		next := selected + delta
		if next >= 0 && next < len(items) {
			selected = next
			redraw()
		}
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		// Handle Windows console arrow sequences (0 or 224, then code)
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72: // up
				move(-1)
			case 80: // down
				move(1)
			case 13: // Enter
				if !show() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				move(-1)
			case 'B':
				move(1)
			}
		case '\r', '\n':
			if !show() {
				return
			}
		case 'k':
			move(-1)
		case 'j':
			move(1)
		case 3, 'q': // Ctrl-C
			fmt.Print("\r\n")
			return
		}
	}
}
