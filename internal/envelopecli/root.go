// Package envelopecli implements the envelope command line tool used to seal,
// open and inspect values in the store's at-rest encryption format.
package envelopecli

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/shared"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	keyEnv        = "ENCRYPTION_KEY"
	defaultKeyLen = 32
)

var errNotSealed = errors.New("value could not be opened with this key")

type options struct {
	key    string
	fields []string
}

// NewRootCommand builds the envelope command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "envelope",
		Short:         "Seal, open and inspect encrypted store values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.key, "key", "k", "", "encryption key (defaults to $"+keyEnv+" or a prompt)")

	root.AddCommand(
		newEncryptCommand(opts),
		newDecryptCommand(opts),
		newInspectCommand(),
		newKeygenCommand(),
	)
	return root
}

func newCipher(cmd *cobra.Command, opts *options) (*cryptox.Cipher, error) {
	key, err := resolveKey(opts.key, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer shared.Wipe(key)
	return cryptox.NewCipher(cryptox.Options{Enabled: true, Key: string(key)}, nil), nil
}

func newEncryptCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Seal a value, or the listed fields of a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCipher(cmd, opts)
			if err != nil {
				return err
			}

			if len(opts.fields) == 0 {
				sealed, err := c.EncryptValue(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sealed)
				return nil
			}

			rec, err := parseRecord(args[0])
			if err != nil {
				return err
			}
			sealed, err := c.EncryptObject(rec, opts.fields)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sealed)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.fields, "fields", "f", nil, "treat the value as a JSON object and seal these fields")
	return cmd
}

func newDecryptCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt <envelope>",
		Short: "Open a sealed value, or the listed fields of a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCipher(cmd, opts)
			if err != nil {
				return err
			}

			if len(opts.fields) == 0 {
				opened := c.DecryptValue(args[0])
				if opened == args[0] {
					return errNotSealed
				}
				fmt.Fprintln(cmd.OutOrStdout(), opened)
				return nil
			}

			rec, err := parseRecord(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c.DecryptObject(rec, opts.fields))
		},
	}
	cmd.Flags().StringSliceVarP(&opts.fields, "fields", "f", nil, "treat the value as a JSON object and open these fields")
	return cmd
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <envelope>",
		Short: "Show the layout of a sealed value without opening it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cryptox.ParseEnvelope(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			label := color.New(color.FgCyan, color.Bold)
			w := cmd.OutOrStdout()
			for _, part := range []struct {
				name string
				b    []byte
			}{
				{"salt", env.Salt},
				{"iv", env.IV},
				{"tag", env.Tag},
			} {
				label.Fprintf(w, "%-10s", part.name)
				fmt.Fprintf(w, " %2d bytes  %s\n", len(part.b), hex.EncodeToString(part.b))
			}
			label.Fprintf(w, "%-10s", "ciphertext")
			fmt.Fprintf(w, " %2d bytes\n", len(env.Ciphertext))
			return nil
		},
	}
}

func newKeygenCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random hex key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				return fmt.Errorf("invalid key size %d", size)
			}
			key, err := shared.RandomHex(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "bytes", "b", defaultKeyLen, "number of random bytes")
	return cmd
}

func parseRecord(s string) (cryptox.Record, error) {
	var rec cryptox.Record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if rec == nil {
		return nil, errors.New("parse record: not a JSON object")
	}
	return rec, nil
}

func writeJSON(w io.Writer, rec cryptox.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// Execute runs the command tree and prints a failure in red to errOut.
func Execute(cmd *cobra.Command, errOut io.Writer) int {
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}
