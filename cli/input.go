package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Input formats accepted by --format
const (
	FormatAuto = "auto"
	FormatKV   = "kv"
	FormatForm = "form"
)

// readInput reads the file named by the first argument, or stdin when it is
// absent or "-"
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

// detectFormat guesses the encoding of input. A URL or a first line with an
// "=" before any ":" is www-form; everything else is key-value form.
func detectFormat(input string) string {
	trimmed := strings.TrimSpace(input)
	if isURL(trimmed) {
		return FormatForm
	}

	line, _, _ := strings.Cut(trimmed, "\n")
	eq := strings.Index(line, "=")
	colon := strings.Index(line, ":")
	if eq >= 0 && (colon < 0 || eq < colon) {
		return FormatForm
	}
	return FormatKV
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// formQuery extracts the query string from a URL or a bare query
func formQuery(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if isURL(trimmed) {
		u, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("parsing URL: %w", err)
		}
		return u.RawQuery, nil
	}
	return strings.TrimPrefix(trimmed, "?"), nil
}
