// Package credentials provides interactive secret acquisition.
//
// The SecretReader interface exists so the orchestrator can be tested with
// a canned secret instead of a console read.
package credentials

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

// SecretReader acquires a single secret value from the operator.
type SecretReader interface {
	ReadSecret(prompt string) (string, error)
}

// Terminal reads secrets from the controlling terminal with echo disabled.
// When stdin is not a terminal (piped input), it falls back to reading one
// line.
type Terminal struct {
	// In and Out default to stdin/stderr.
	In  *os.File
	Out io.Writer
}

// NewTerminal returns a Terminal reader bound to stdin/stderr.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

// ReadSecret prompts and reads a secret, masked when possible.
func (t *Terminal) ReadSecret(prompt string) (string, error) {
	fmt.Fprintf(t.Out, "%s: ", prompt)

	fd := int(t.In.Fd())
	if isatty.IsTerminal(t.In.Fd()) || isatty.IsCygwinTerminal(t.In.Fd()) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(t.Out)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCredentialRead, "failed to read password")
		}
		return string(secret), nil
	}

	// Piped input: read a single line
	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, errors.ErrCredentialRead, "failed to read password")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err == io.EOF {
		return "", errors.New(errors.ErrCredentialRead, "no password supplied on stdin")
	}
	return line, nil
}

// Static returns a fixed secret. Test double.
type Static struct {
	Secret string
	Err    error

	// Calls counts ReadSecret invocations.
	Calls int
}

// ReadSecret implements SecretReader.
func (s *Static) ReadSecret(string) (string, error) {
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	return s.Secret, nil
}
