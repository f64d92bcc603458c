package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"observatorio/internal/models"
	"observatorio/internal/providers"
	"observatorio/internal/store"

	"github.com/spf13/cobra"
)

var (
	validateJSON   bool
	validateStrict bool
	validateGroups []string
)

var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the repository tree for missing histories and transcripts",
	Long: `Audits every commission: history rows without a transcript, transcripts
that no history row mentions, and commissions without historial.csv or
integrantes.json. With --strict any finding makes the command fail.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the report as JSON")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when any finding is reported")
	validateCmd.Flags().StringSliceVar(&validateGroups, "group", nil, "limit to these commission groups")
	rootCmd.AddCommand(validateCmd)
}

type validationReport struct {
	DataRepoDir         string                   `json:"data_repo_dir"`
	DataRepoOK          bool                     `json:"data_repo_ok"`
	KomDirOK            bool                     `json:"kom_dir_ok"`
	GeneratorConfigured bool                     `json:"generator_configured"`
	Commissions         []models.CommissionAudit `json:"commissions"`
	MissingHistory      int                      `json:"missing_history"`
	MissingRoster       int                      `json:"missing_roster"`
	MissingTranscripts  int                      `json:"missing_transcripts"`
	OrphanTranscripts   int                      `json:"orphan_transcripts"`
}

func (r validationReport) findings() int {
	return r.MissingHistory + r.MissingTranscripts + r.OrphanTranscripts
}

func runValidate(cmd *cobra.Command, _ []string) error {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return err
	}
	groups := validateGroups
	if len(groups) == 0 {
		groups = store.Groups
	}
	report := buildValidationReport(store.New(cfg.DataRepoDir, cfg.KomDir, logger), groups)
	report.GeneratorConfigured = pm.Configured()

	if validateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		cmd.Print(renderValidation(report))
	}
	if !report.DataRepoOK {
		return fmt.Errorf("%w: data repo %s is not readable", errValidationFailed, report.DataRepoDir)
	}
	if validateStrict && report.findings() > 0 {
		return fmt.Errorf("%w: %d findings", errValidationFailed, report.findings())
	}
	return nil
}

func buildValidationReport(s *store.Store, groups []string) validationReport {
	r := validationReport{
		DataRepoDir: s.DataRepoDir,
		DataRepoOK:  isDir(s.DataRepoDir),
		KomDirOK:    isDir(s.KomDir),
		Commissions: []models.CommissionAudit{},
	}
	for _, g := range groups {
		for _, c := range s.ListCommissions(g, "") {
			a := s.AuditCommission(g, c.Name)
			r.Commissions = append(r.Commissions, a)
			if !a.HasHistory {
				r.MissingHistory++
			}
			if !a.HasRoster {
				r.MissingRoster++
			}
			r.MissingTranscripts += len(a.MissingTranscripts)
			r.OrphanTranscripts += len(a.OrphanTranscripts)
		}
	}
	return r
}

func renderValidation(r validationReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Validación del repositorio") + "\n")
	b.WriteString(check(r.DataRepoOK, "repositorio "+r.DataRepoDir) + "\n")
	b.WriteString(warnCheck(r.KomDirOK, "directorio KOM") + "\n")
	b.WriteString(warnCheck(r.GeneratorConfigured, "generador configurado") + "\n\n")

	for _, a := range r.Commissions {
		name := a.Group + "/" + a.Commission
		switch {
		case !a.HasHistory:
			b.WriteString(errStyle.Render("✘ "+name) + mutedStyle.Render("  sin historial.csv") + "\n")
		case len(a.MissingTranscripts) > 0 || len(a.OrphanTranscripts) > 0:
			b.WriteString(warnStyle.Render("! "+name) + "\n")
		default:
			b.WriteString(okStyle.Render("✔ "+name) + "\n")
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("    sesiones %d  transcripciones %d", a.Sessions, a.Transcripts)) + "\n")
		if len(a.MissingTranscripts) > 0 {
			b.WriteString(fmt.Sprintf("    sin transcripción: %s\n", sample(a.MissingTranscripts)))
		}
		if len(a.OrphanTranscripts) > 0 {
			b.WriteString(fmt.Sprintf("    sin fila en historial: %s\n", sample(a.OrphanTranscripts)))
		}
	}

	summary := fmt.Sprintf("comisiones %d · sin historial %d · sin integrantes %d\ntranscripciones faltantes %d · huérfanas %d",
		len(r.Commissions), r.MissingHistory, r.MissingRoster, r.MissingTranscripts, r.OrphanTranscripts)
	b.WriteString("\n" + summaryStyle.Render(summary) + "\n")
	return b.String()
}

const sampleSize = 8

func sample(ids []string) string {
	if len(ids) <= sampleSize {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:sampleSize], ", ") + fmt.Sprintf(" (+%d)", len(ids)-sampleSize)
}

func check(ok bool, label string) string {
	if ok {
		return okStyle.Render("✔ " + label)
	}
	return errStyle.Render("✘ " + label)
}

func warnCheck(ok bool, label string) string {
	if ok {
		return okStyle.Render("✔ " + label)
	}
	return warnStyle.Render("! " + label)
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
