package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/folio/modules/auth"
)

var ErrEmptyPassword = errors.New("password is empty")

func NewHashPasswordCommand() *cobra.Command {
	cfg := auth.PasswordConfig{}

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for content.admin.password_hash",
		Long: `Print the hash of a password in the format the login check expects. The
password is read from the first line of stdin when not given as an argument,
which keeps it out of shell history:

  echo -n 'correct horse' | folio hash-password`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, args)
			if err != nil {
				return err
			}
			hasher, err := auth.NewHasher(cfg)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Algorithm, "algorithm", "scrypt", "Hash algorithm (scrypt or bcrypt)")
	cmd.Flags().IntVar(&cfg.BcryptCost, "bcrypt-cost", 12, "bcrypt cost factor")
	return cmd
}

func readPassword(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		if args[0] == "" {
			return "", ErrEmptyPassword
		}
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", ErrEmptyPassword
	}
	return line, nil
}
