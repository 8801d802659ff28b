package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	var required bool

	cmd := &cobra.Command{
		Use:         "users",
		Short:       "Prints the login users RT-CV hands out to this key",
		Annotations: map[string]string{oneShotAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			users, err := a.server.GetUsers(cmd.Context(), required)
			if err != nil {
				return fmt.Errorf("get users: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(users); err != nil {
				return fmt.Errorf("write users: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&required, "required", false, "fail when RT-CV returns no users")
	return cmd
}
