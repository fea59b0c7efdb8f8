package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// prompter asks for values on an interactive stream.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func eofKey() string {
	if runtime.GOOS == "windows" {
		return "Ctrl+Z"
	}
	return "Ctrl+D"
}

// line prints prompt and returns one trimmed line.
func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// untilEOF prints prompt and returns everything up to end of input.
// On a terminal the stream can be read again after each EOF.
func (p *prompter) untilEOF(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s (press %s to continue):\n", prompt, eofKey())
	data, err := io.ReadAll(p.in)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// readSource returns the contents of path, with "-" meaning stdin.
func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
