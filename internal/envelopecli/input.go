package envelopecli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var lookupEnv = os.LookupEnv

var errEmptyKey = errors.New("empty encryption key")

// resolveKey picks the key from the flag, then ENCRYPTION_KEY, then an
// interactive prompt written to w.
func resolveKey(flagKey string, w io.Writer) ([]byte, error) {
	if flagKey != "" {
		return []byte(flagKey), nil
	}
	if v, ok := lookupEnv(keyEnv); ok && v != "" {
		return []byte(v), nil
	}

	if _, err := fmt.Fprint(w, "Enter encryption key: "); err != nil {
		return nil, err
	}
	key, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	if strings.TrimSpace(string(key)) == "" {
		return nil, errEmptyKey
	}
	return key, nil
}
