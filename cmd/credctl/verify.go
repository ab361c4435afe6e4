package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/service"
)

var errInvalidCredential = errors.New("credential is not valid")

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify a credential token with the configured keys",
	Long:  "Verify checks the token offline. It needs only key material, never the database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		keys, err := credential.LoadKeyMaterial(cfg.Credential)
		if err != nil {
			return err
		}

		opts := []credential.VerifierOption{credential.WithIssuer(cfg.Credential.Issuer)}
		if url := strings.TrimSpace(cfg.Credential.JWKSURL); url != "" {
			remote, err := credential.RemoteKeys(ctx, url, 0, logger)
			if err != nil {
				return err
			}
			opts = append(opts, credential.WithRemoteKeys(remote))
		}

		verifier, err := credential.NewVerifier(keys, opts...)
		if err != nil {
			return err
		}

		response := service.NewVerificationService(verifier, logger).Verify(ctx, args[0])
		if jsonOutput {
			if err := printJSON(response); err != nil {
				return err
			}
		} else if response.Valid {
			subject := response.Payload.VC.CredentialSubject
			fmt.Println("Credential valid")
			fmt.Printf("  Student:     %s (%s)\n", subject.Name, subject.StudentID)
			fmt.Printf("  Activity:    %s\n", subject.Activity.Title)
			fmt.Printf("  Verified by: %s at %s\n", subject.VerifiedBy.Name, subject.VerifiedAt)
			fmt.Printf("  Expires:     %s\n", response.Payload.ExpiresAt.Time.UTC().Format("2006-01-02"))
		}

		if !response.Valid {
			return fmt.Errorf("%w: %s", errInvalidCredential, response.Error)
		}
		return nil
	},
}
