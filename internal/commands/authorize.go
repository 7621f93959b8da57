package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"myweight/internal/config"
)

func newAuthorizeCmd(o *rootOptions) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Obtain Health Planet tokens through the authorization-code flow",
		Long: `Print the Health Planet authorization URL, then exchange the code shown
after approval for an access token and a refresh token.

The tokens are printed as export lines for MYWEIGHT_PROVIDER_ACCESS_TOKEN
and MYWEIGHT_PROVIDER_REFRESH_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := o.cfg.Provider
			if p.ClientID == "" || p.ClientSecret == "" {
				return errors.New("provider.client_id and provider.client_secret are required to authorize")
			}
			creds := providerCredentials(o.cfg)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Open this URL, sign in and approve access:\n\n  %s\n\n", creds.AuthCodeURL(newState()))

			if code == "" {
				err := huh.NewInput().
					Title("Authorization code").
					Description("Paste the code shown on the Health Planet success page").
					Value(&code).
					Run()
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(code) == "" {
				return errors.New("authorization code is empty")
			}

			ctx := context.WithValue(cmd.Context(), oauth2.HTTPClient, &http.Client{Timeout: p.Timeout})
			tok, err := creds.Exchange(ctx, code)
			if err != nil {
				return fmt.Errorf("exchange authorization code: %w", err)
			}
			return printTokenExports(out, tok)
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code; prompted for when omitted")
	return cmd
}

func printTokenExports(w io.Writer, tok *oauth2.Token) error {
	var b strings.Builder
	fmt.Fprintf(&b, "export %s_PROVIDER_ACCESS_TOKEN=%s\n", config.EnvPrefix, tok.AccessToken)
	if tok.RefreshToken != "" {
		fmt.Fprintf(&b, "export %s_PROVIDER_REFRESH_TOKEN=%s\n", config.EnvPrefix, tok.RefreshToken)
	}
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(&b, "# access token expires %s\n", tok.Expiry.Format(time.RFC3339))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
