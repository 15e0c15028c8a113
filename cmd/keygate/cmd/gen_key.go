package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

var (
	genKeyUserID   int64
	genKeyUsername string
	genKeyRoles    string
)

var genKeyCmd = &cobra.Command{
	Use:   "gen-key",
	Short: "Generate a new API key",
	Long: `Generate a random API key of the form ak_<32 hex characters>.

With --username the command also prints a static registry entry that can be
appended to auth.api_keys.users (or auth.api_keys.admin).

Examples:
  keygate gen-key
  keygate gen-key --user-id 7 --username ci-bot --roles USER`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateAPIKey()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if genKeyUsername == "" {
			fmt.Fprintln(out, key)
			return nil
		}

		entry, err := staticKeyEntry(key, genKeyUserID, genKeyUsername, genKeyRoles)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "API key:      %s\n", key)
		fmt.Fprintf(out, "Static entry: %s\n", entry)
		return nil
	},
}

func init() {
	genKeyCmd.Flags().Int64Var(&genKeyUserID, "user-id", 0, "user ID for the static entry")
	genKeyCmd.Flags().StringVar(&genKeyUsername, "username", "", "username for the static entry")
	genKeyCmd.Flags().StringVar(&genKeyRoles, "roles", "USER", "comma-separated roles for the static entry")
	rootCmd.AddCommand(genKeyCmd)
}

// staticKeyEntry formats a key:userId:username:ROLES entry and checks it
// parses back the way the static registry will read it.
func staticKeyEntry(key string, userID int64, username, roles string) (string, error) {
	if strings.ContainsAny(username, ":|") {
		return "", fmt.Errorf("username %q must not contain ':' or '|'", username)
	}

	var names []string
	for _, r := range auth.NormalizeRoles(splitRoles(roles)) {
		names = append(names, string(r))
	}
	if len(names) == 0 {
		return "", fmt.Errorf("at least one role is required")
	}

	entry := fmt.Sprintf("%s:%d:%s:%s", key, userID, username, strings.Join(names, ","))
	if parsed := auth.ParseStaticKeys("", entry, nil); len(parsed) != 1 {
		return "", fmt.Errorf("generated entry %q is not a valid static key entry", entry)
	}
	return entry, nil
}

func splitRoles(raw string) []auth.Role {
	var roles []auth.Role
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, auth.Role(r))
		}
	}
	return roles
}
