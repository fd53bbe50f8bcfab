// Package confirm provides the user-confirmation port used by conflict
// arbitration and destructive engine operations.
//
// Prompts block until answered and have no timeout. High-risk prompts
// demand the exact literal "YES"; assume-yes mode never satisfies them,
// so scripted runs cannot push a high-risk removal through.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// Confirmer is the prompt port. Implementations decide where answers
// come from: a terminal, a fixed answer, or a test script.
type Confirmer interface {
	// Confirm asks a yes/no question. With exactYes the literal "YES"
	// (any case) is the only accepted answer.
	Confirm(prompt string, exactYes bool) bool

	// Choose presents options and returns the selected one.
	Choose(prompt string, options []string) (string, bool)
}

// Terminal prompts on a terminal. When stdin is not a TTY it fails
// closed: every prompt is declined unless AssumeYes covers it.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	// AssumeYes answers ordinary prompts with yes. It never satisfies
	// an exactYes prompt.
	AssumeYes bool

	// Interactive marks stdin as a real terminal
	Interactive bool

	scanner *bufio.Scanner
}

// NewTerminal creates a Terminal over stdin/stdout, detecting whether
// stdin is a TTY.
func NewTerminal(assumeYes bool) *Terminal {
	return &Terminal{
		In:          os.Stdin,
		Out:         os.Stdout,
		AssumeYes:   assumeYes,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// Confirm asks a yes/no question and reads one line.
func (t *Terminal) Confirm(prompt string, exactYes bool) bool {
	if exactYes {
		if !t.Interactive {
			return false
		}
		fmt.Fprintf(t.Out, "%s (type \"YES\" to proceed): ", prompt)
		answer, ok := t.readLine()
		return ok && strings.EqualFold(answer, "YES")
	}

	if t.AssumeYes {
		return true
	}
	if !t.Interactive {
		return false
	}
	fmt.Fprintf(t.Out, "%s [y/N]: ", prompt)
	answer, ok := t.readLine()
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Choose prints numbered options and reads an index or a literal option.
func (t *Terminal) Choose(prompt string, options []string) (string, bool) {
	if len(options) == 0 || !t.Interactive {
		return "", false
	}

	fmt.Fprintln(t.Out, prompt)
	for i, option := range options {
		fmt.Fprintf(t.Out, "  %d) %s\n", i+1, option)
	}
	fmt.Fprintf(t.Out, "Select [1-%d]: ", len(options))

	answer, ok := t.readLine()
	if !ok {
		return "", false
	}
	if index, err := strconv.Atoi(answer); err == nil {
		if index >= 1 && index <= len(options) {
			return options[index-1], true
		}
		return "", false
	}
	for _, option := range options {
		if strings.EqualFold(answer, option) {
			return option, true
		}
	}
	return "", false
}

func (t *Terminal) readLine() (string, bool) {
	if t.scanner == nil {
		t.scanner = bufio.NewScanner(t.In)
	}
	if !t.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.scanner.Text()), true
}

// Auto answers every ordinary prompt with a fixed answer. Exact-yes
// prompts are always declined.
type Auto bool

// Confirm returns the fixed answer, or false for exactYes prompts.
func (a Auto) Confirm(_ string, exactYes bool) bool {
	if exactYes {
		return false
	}
	return bool(a)
}

// Choose picks the first option when the fixed answer is yes.
func (a Auto) Choose(_ string, options []string) (string, bool) {
	if !bool(a) || len(options) == 0 {
		return "", false
	}
	return options[0], true
}
