package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errPasswordMismatch = errors.New("passwords do not match")

// promptPassword reads a password without echo when stdin is a terminal and
// asks for it twice. Piped input is read as a single line.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if in != os.Stdin || !isTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
