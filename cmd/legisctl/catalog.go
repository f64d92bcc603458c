package main

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"observatorio/internal/app"

	"github.com/spf13/cobra"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Scan the repository and summarize the evidence catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(catalogCmd)
}

type catalogSummary struct {
	Documents int            `json:"documents"`
	ByKind    map[string]int `json:"by_kind"`
	Entities  []string       `json:"entities"`
	Roots     []string       `json:"roots"`
	Took      string         `json:"took"`
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger, app.Options{SkipRebuild: true})
	if err != nil {
		return err
	}
	defer a.Close()

	started := time.Now()
	cat := a.Catalog.Rebuild(ctx)
	sum := catalogSummary{
		Documents: cat.Len(),
		ByKind:    map[string]int{},
		Entities:  cat.Entities(),
		Roots:     a.Catalog.Roots(),
		Took:      time.Since(started).Round(time.Millisecond).String(),
	}
	for k, n := range cat.CountByKind() {
		sum.ByKind[string(k)] = n
	}

	if catalogJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	cmd.Println(titleStyle.Render("Catálogo de evidencia"))
	cmd.Printf("  documentos: %d  (%s)\n", sum.Documents, sum.Took)
	kinds := make([]string, 0, len(sum.ByKind))
	for k := range sum.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		cmd.Printf("  %-11s %d\n", k, sum.ByKind[k])
	}
	cmd.Printf("  entidades:  %d\n", len(sum.Entities))
	for _, e := range sum.Entities {
		cmd.Println(mutedStyle.Render("    " + e))
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
