package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ihaboard/internal/app"
	"ihaboard/internal/secret"
)

// secrets is swapped out in tests.
var secrets secret.SecretStore = secret.NewKeychainStore()

// SecretCmd manages credentials referenced by history.password_key.
var SecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage stored credentials",
	Long:  `Store the history database password in the macOS Keychain and point history.password_key at it instead of writing the password into the config file.`,
}

var secretSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Set(args[0], []byte(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", args[0])
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	SecretCmd.AddCommand(secretSetCmd)
	SecretCmd.AddCommand(secretDeleteCmd)
}

// newApp builds an App that reads history.password_key from secrets.
func newApp() *app.App {
	a := app.New(cfg, nil)
	a.SetSecretStore(secrets)
	return a
}
