package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/skillfolio-api/internal/service"
)

var reissueCmd = &cobra.Command{
	Use:   "reissue <activity-id>",
	Short: "Re-sign and republish the credential of an approved activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		result, err := container.Moderation.Reissue(ctx, args[0])
		if err != nil {
			if errors.Is(err, service.ErrActivityNotApproved) {
				return fmt.Errorf("activity %s is not approved, only approved activities carry credentials", args[0])
			}
			return err
		}

		if jsonOutput {
			return printJSON(map[string]interface{}{
				"activity_id":      result.Activity.ID,
				"token":            result.Token,
				"document_locator": result.DocumentLocator,
			})
		}

		fmt.Printf("Reissued credential for %s\n", result.Activity.ID)
		if result.DocumentLocator != nil {
			fmt.Printf("  Certificate: %s\n", *result.DocumentLocator)
		}
		if result.Token != nil {
			fmt.Printf("  Token:       %s\n", *result.Token)
		}
		return nil
	},
}
