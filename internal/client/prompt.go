package client

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PassphraseEnv names the environment variable that overrides the
// passphrase prompt, for scripted use.
const PassphraseEnv = "OPENLOCKR_PASSPHRASE"

// terminalReader prompts on the controlling terminal with echo disabled. When
// in is not a terminal it reads one line from it instead.
type terminalReader struct {
	in     *os.File
	prompt io.Writer
	lines  *bufio.Reader
}

// NewTerminalReader returns a [SecretReader] over in that writes prompts to
// prompt.
func NewTerminalReader(in *os.File, prompt io.Writer) SecretReader {
	return &terminalReader{in: in, prompt: prompt, lines: bufio.NewReader(in)}
}

func (t *terminalReader) ReadSecret(prompt string) ([]byte, error) {
	fd := int(t.in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(t.prompt, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(t.prompt)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		return secret, nil
	}
	return readLine(t.lines)
}

// readLine returns the next line of r without its line ending.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// envOrReader takes the secret from an environment variable when it is set
// and falls back to the wrapped reader.
type envOrReader struct {
	lookup func(string) (string, bool)
	next   SecretReader
}

func (e envOrReader) ReadSecret(prompt string) ([]byte, error) {
	if v, ok := e.lookup(PassphraseEnv); ok && v != "" {
		return []byte(v), nil
	}
	return e.next.ReadSecret(prompt)
}
