package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ScanCatalogActivity)
	w.RegisterActivity(a.ListCommissionsActivity)
	w.RegisterActivity(a.AuditCommissionActivity)
	w.RegisterActivity(a.AskStatsActivity)
	w.RegisterActivity(a.WriteAuditManifestActivity)
}
