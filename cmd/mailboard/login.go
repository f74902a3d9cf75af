package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/credential"
)

var loginForget bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the backend password in the system keyring",
	Long: "Prompts for the password of api.username and stores it under the " +
		"keyring key named by api.password_ref (keyring:<key>).",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, ok := credential.KeyFromRef(cfg.API.PasswordRef)
		if !ok {
			return fmt.Errorf("api.password_ref %q does not point at the keyring", cfg.API.PasswordRef)
		}

		vault, err := credential.Open()
		if err != nil {
			return err
		}

		if loginForget {
			if err := vault.Delete(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password removed from keyring")
			return nil
		}

		var password string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Password for %s", cfg.API.Username)).
					EchoMode(huh.EchoModePassword).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("password is required")
						}
						return nil
					}).
					Value(&password),
			),
		)
		if err := form.RunWithContext(cmd.Context()); err != nil {
			return err
		}

		if err := vault.Set(key, password); err != nil {
			return err
		}
		logger.WithField("key", key).Info("Stored API password")

		client, err = newClient(cfg, logger)
		if err != nil {
			return err
		}
		if _, err := client.Health(cmd.Context()); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Password saved, but the backend did not respond: %v\n", err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password saved")
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginForget, "forget", false, "Remove the stored password instead")
}
