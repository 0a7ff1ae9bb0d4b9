package commands

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sharecrm-io/fxcrm/internal/auth"
	"github.com/sharecrm-io/fxcrm/pkg/fxclient"
)

// TokenInfo is what the token command prints. The token itself is never shown.
type TokenInfo struct {
	CorpID    string    `json:"corp_id"    yaml:"corp_id"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	ExpiresIn string    `json:"expires_in" yaml:"expires_in"`
}

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Obtain a corp access token",
		Long:  "Request a corp access token with the configured credentials and show the corp id and expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := resolveSecret(config, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fxConfig, err := buildClientConfig(config, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			transport, err := fxclient.NewTransport(fxConfig)
			if err != nil {
				return err
			}

			manager := auth.NewFxiaokeTokenManager(config.AuthRoot, auth.Credentials{
				AppID:         config.AppID,
				AppSecret:     config.AppSecret,
				PermanentCode: config.PermanentCode,
			}, transport)

			err = manager.RefreshToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to obtain token: %w", err)
			}

			token := manager.Token()
			info := TokenInfo{
				CorpID:    token.CorpID,
				ExpiresAt: token.ExpiresAt.UTC(),
				ExpiresIn: time.Until(token.ExpiresAt).Round(time.Second).String(),
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, info)
			if done || err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Property", "Value")
			_ = table.Append([]string{"Corp ID", info.CorpID})
			_ = table.Append([]string{"Expires At", info.ExpiresAt.Format(time.RFC3339)})
			_ = table.Append([]string{"Expires In", info.ExpiresIn})

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}
