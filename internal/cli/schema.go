package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/repofilter/api"
	"github.com/macropower/repofilter/pkg/rules"
)

func NewSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := rules.Schema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			if outputPath != stdio {
				err = api.WriteFile(outputPath, data)
				if err != nil {
					return fmt.Errorf("write schema: %w", err)
				}

				return nil
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), string(data)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", stdio, "Path to write the schema to, - for stdout")

	return cmd
}
