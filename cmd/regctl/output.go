package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/coderegistry/internal/api/client"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

func printJSON(w io.Writer, v interface{}) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func depList(deps []types.DepRef) string {
	if len(deps) == 0 {
		return "-"
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.Account.String() + "::" + d.PackageName
	}
	return strings.Join(parts, ",")
}

// exitCode returns the registry abort code for rule violations so scripts
// can branch on it, 1 otherwise
func exitCode(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.AbortCode != 0 {
		return int(apiErr.AbortCode)
	}
	if code := registry.Code(err); code != 0 {
		return int(code)
	}
	return 1
}
