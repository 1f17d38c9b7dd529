package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MrEthical07/tokenauth/internal/config"
	"github.com/MrEthical07/tokenauth/password"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// NewHashPasswordCmd creates the hash-password subcommand, which prints a hash
// suitable for seeding a credential store by hand.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from the terminal or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath(cmd), nil)
			if err != nil {
				return err
			}
			hasher, err := password.New(password.Options{
				Algorithm:  password.Algorithm(settings.Password.Algorithm),
				BcryptCost: settings.Password.BcryptCost,
				Argon2:     password.DefaultArgon2Config(),
			})
			if err != nil {
				return oops.Code("CONFIG_INVALID").With("key", "password").Wrap(err)
			}

			pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(pw)
			if err != nil {
				return oops.Code("HASH_FAILED").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// promptPassword reads without echo when stdin is a terminal and otherwise takes
// the first line of in.
func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		if len(pw) == 0 {
			return "", oops.Code("PASSWORD_EMPTY").Errorf("password must not be empty")
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", oops.Code("PASSWORD_EMPTY").Errorf("password must not be empty")
	}
	return line, nil
}
