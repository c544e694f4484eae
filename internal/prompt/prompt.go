// Package prompt handles interactive question/answer exchanges with the user.
// Input and output are injected so the selector and the run loop can be driven
// from tests without a real terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line from an input source and writes
// questions and status text to a message sink.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New creates a Prompter over the given input source and message sink.
func New(in io.Reader, out io.Writer) *Prompter {
	if out == nil {
		out = io.Discard
	}
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Out returns the message sink.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Printf writes formatted text to the message sink.
func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Println writes a line to the message sink.
func (p *Prompter) Println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// Ask prints question and returns the next input line with surrounding
// whitespace removed. Exhausted input yields an empty answer.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	if !p.scanner.Scan() {
		// Keep the transcript readable when input is piped and runs out.
		fmt.Fprintln(p.out)
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Confirm asks a yes/no question. Only "y" (any case) counts as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == "y", nil
}
