package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

func newListCmd(s settings) *cobra.Command {
	var (
		text     string
		category string
		sortKey  string
		desc     bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services, filtered and sorted like the GUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, closeDB, err := openCatalog(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer closeDB()

			values := url.Values{"q": {text}, "category": {category}, "sort": {sortKey}}
			if desc {
				values.Set("dir", string(model.SortDesc))
			}
			result := catalog.Query(application.QueryFromValues(values))

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result.Services)
			}
			return writeTable(cmd.OutOrStdout(), result.Services)
		},
	}

	cmd.Flags().StringVarP(&text, "query", "q", "", "case-insensitive text filter on name and notes")
	cmd.Flags().StringVarP(&category, "category", "c", model.CategoryAll, "category filter (ALL, Uncategorized, or a category)")
	cmd.Flags().StringVarP(&sortKey, "sort", "s", string(model.SortByName), "sort key")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeTable(w io.Writer, services []model.Service) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMIN\tMAX\t2FA\tPASSKEY\tCATEGORY\tURL")
	for _, svc := range services {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			svc.Name,
			lengthCell(svc.MinLength),
			lengthCell(svc.MaxLength),
			yesNo(svc.TwoFactor),
			yesNo(svc.Passkey),
			svc.CategoryLabel(),
			svc.URL,
		)
	}
	return tw.Flush()
}

func lengthCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func newImportCmd(s settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the catalog with a JSON export (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			catalog, closeDB, err := openCatalog(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := catalog.Import(cmd.Context(), doc)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d services", len(result.Services))
			if result.Dropped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", skipped %d invalid records", result.Dropped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return data, nil
}

func newExportCmd(s settings) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as pretty-printed JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, closeDB, err := openCatalog(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer closeDB()

			data, err := catalog.Export()
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d services to %s\n", catalog.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout, suggested "+application.ExportFilename+")")
	return cmd
}

func newClearCmd(s settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}

			catalog, closeDB, err := openCatalog(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := catalog.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every service")
	return cmd
}

func newResetCmd(s settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the saved catalog and restore the sample services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}

			catalog, closeDB, err := openCatalog(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := catalog.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog reset to sample data")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm discarding the saved catalog")
	return cmd
}
