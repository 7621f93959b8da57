package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"myweight/internal/adapter/bearer"
)

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "hash-key <key>",
		Short:       "Hash an API key for auth.api_key_hashes",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bearer.HashKey(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
