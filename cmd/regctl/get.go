package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

func getCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get [address [package]]",
		Short: "List accounts, an account's packages, or one package",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := flags.client()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				stats, err := c.Stats(ctx)
				if err != nil {
					return err
				}
				accounts, err := c.Accounts(ctx)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out, map[string]interface{}{"stats": stats, "accounts": accounts})
				}
				fmt.Fprintf(out, "%d accounts, %d packages, %d modules\n", stats.Registries, stats.Packages, stats.Modules)
				for _, a := range accounts {
					fmt.Fprintln(out, a)
				}
				return nil
			}

			addr, err := types.ParseAddress(args[0])
			if err != nil {
				return err
			}

			if len(args) == 2 {
				pkg, err := c.Package(ctx, addr, args[1])
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out, pkg)
				}
				fmt.Fprintf(out, "%s::%s\n", addr, pkg.Name)
				fmt.Fprintf(out, "  policy:   %s\n", pkg.UpgradePolicy)
				fmt.Fprintf(out, "  upgrade:  %d\n", pkg.UpgradeNumber)
				fmt.Fprintf(out, "  digest:   %s\n", pkg.SourceDigest)
				fmt.Fprintf(out, "  modules:  %s\n", strings.Join(pkg.ModuleNames(), ", "))
				fmt.Fprintf(out, "  deps:     %s\n", depList(pkg.Deps))
				return nil
			}

			view, err := c.Account(ctx, addr)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(out, view)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "PACKAGE\tPOLICY\tUPGRADE\tMODULES\tDEPS")
			for _, p := range view.Packages {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					p.Name, p.UpgradePolicy, p.UpgradeNumber, strings.Join(p.Modules, ","), depList(p.Deps))
			}
			return tw.Flush()
		},
	}
}
