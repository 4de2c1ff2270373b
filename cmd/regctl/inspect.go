package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/coderegistry/internal/domain/bundle"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <bundle.yaml>",
		Short: "Show the packages in a release bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBundle(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, summarize(b))
			}

			fmt.Fprintf(out, "Bundle %s", b.Name)
			if b.Chain != "" {
				fmt.Fprintf(out, " (%s)", b.Chain)
			}
			fmt.Fprintln(out)

			tw := newTable(out)
			fmt.Fprintln(tw, "ACCOUNT\tPACKAGE\tPOLICY\tMODULES\tDEPS\tDIGEST")
			for _, e := range b.Packages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.12s\n",
					e.Account, e.Package.Name, e.Package.UpgradePolicy,
					strings.Join(e.Package.ModuleNames(), ","), depList(e.Package.Deps), e.Package.SourceDigest)
			}
			return tw.Flush()
		},
	}
}

type bundleSummary struct {
	Name     string         `json:"name"`
	Chain    string         `json:"chain,omitempty"`
	Packages []entrySummary `json:"packages"`
}

type entrySummary struct {
	Account types.Address         `json:"account"`
	Dir     string                `json:"dir"`
	Bytes   int                   `json:"bytes"`
	Package types.PackageMetadata `json:"package"`
}

func summarize(b *bundle.Bundle) bundleSummary {
	out := bundleSummary{Name: b.Name, Chain: b.Chain, Packages: make([]entrySummary, len(b.Packages))}
	for i, e := range b.Packages {
		n := 0
		for _, c := range e.Code {
			n += len(c)
		}
		out.Packages[i] = entrySummary{Account: e.Account, Dir: e.Dir, Bytes: n, Package: e.Package.ToMetadata()}
	}
	return out
}

// loadBundle reads a descriptor from the local filesystem
func loadBundle(path string) (*bundle.Bundle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return bundle.Load(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}
