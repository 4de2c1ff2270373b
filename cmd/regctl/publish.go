package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "publish <bundle.yaml>",
		Short: "Publish every package of a release bundle, in order",
		Long: `Publish the packages of a release bundle to the registry in descriptor
order. Publishing stops at the first rejected package; the exit status is
the registry abort code when the rejection is a rule violation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBundle(args[0])
			if err != nil {
				return err
			}

			c := flags.client()
			out := cmd.OutOrStdout()
			var results []*code.PublishResult
			for _, e := range b.Packages {
				if only != "" && e.Package.Name != only {
					continue
				}
				res, err := c.Publish(cmd.Context(), code.PublishRequest{
					Publisher: e.Account,
					Package:   e.Package,
					Code:      e.Code,
				})
				if err != nil {
					return fmt.Errorf("publish %s at %s: %w", e.Package.Name, e.Account, err)
				}
				results = append(results, res)
				if !flags.json {
					fmt.Fprintf(out, "published %s::%s upgrade %d (%s, %d allowed deps)\n",
						res.Publisher, res.Package, res.UpgradeNumber, res.Policy, len(res.AllowedDeps))
				}
			}

			if only != "" && len(results) == 0 {
				return fmt.Errorf("bundle %s has no package %q", b.Name, only)
			}
			if flags.json {
				return printJSON(out, results)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "package", "", "Publish only this package")
	return cmd
}
