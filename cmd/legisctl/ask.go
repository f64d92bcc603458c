package main

import (
	"encoding/json"
	"strings"

	"observatorio/internal/app"
	"observatorio/internal/prompt"

	"github.com/spf13/cobra"
)

var (
	askJSON     bool
	askEvidence bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question using only repository evidence",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")
	askCmd.Flags().BoolVar(&askEvidence, "evidence", false, "list the documents the answer was grounded on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger, app.Options{ConnectAudit: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ans := a.Agent.Ask(ctx, strings.Join(args, " "))
	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	cmd.Println(ans.String())
	if askEvidence && len(ans.Documents) > 0 {
		cmd.Println()
		cmd.Println(headerStyle.Render("Evidencia"))
		for i, d := range ans.Documents {
			cmd.Printf("  [%d] %s  %s\n", i+1, prompt.DocumentName(d.Doc),
				mutedStyle.Render(d.Doc.Group+"/"+d.Doc.Entity+" score "+itoa(d.Score)))
		}
	}
	return nil
}
