package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mylifeisrpg/keygate/internal/config"
	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

var hashAlgorithm string

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password read from stdin",
	Long: `Read a password from the first line of stdin and print its hash.

The algorithm defaults to auth.password_hash (argon2id unless configured).
Reading from stdin keeps the password out of shell history.

Example:
  printf '%s\n' "$PASSWORD" | keygate hash-password --algorithm bcrypt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		algorithm := hashAlgorithm
		if algorithm == "" {
			cfg, err := config.LoadConfigRaw()
			if err != nil {
				return err
			}
			algorithm = cfg.Auth.PasswordHash
		}

		hasher, err := auth.NewPasswordHasher(algorithm)
		if err != nil {
			return err
		}

		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().StringVar(&hashAlgorithm, "algorithm", "", "hash algorithm: argon2id or bcrypt (default: auth.password_hash)")
	rootCmd.AddCommand(hashPasswordCmd)
}

// readPassword returns the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("no password on stdin")
	}
	return password, nil
}
