package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/terraincognita07/endotrack/internal/services"
)

type Translator interface {
	Translate(language string, key string) string
	Translatef(language string, key string, args ...any) string
}

// RunSummaryCommand prints the dashboard headline followed by the shareable
// report text.
func RunSummaryCommand(logs services.ExportLogReader, translator Translator, profile services.ExportProfile, language string, out io.Writer) error {
	entries := logs.Logs()
	metrics := services.BuildDerivedMetrics(entries)

	fmt.Fprintf(out, "%s · %s\n",
		translator.Translatef(language, "summary.day", metrics.TreatmentDay),
		translator.Translate(language, "phase."+string(metrics.TreatmentPhase)),
	)
	fmt.Fprintln(out, translator.Translatef(language, "summary.progress", percent(metrics.TreatmentProgress)))
	if metrics.TotalEntries > 0 {
		fmt.Fprintln(out, translator.Translatef(language, "summary.adherence", percent(metrics.MedicationAdherence)))
	}
	if metrics.HasPatternInsight {
		fmt.Fprintln(out, translator.Translate(language, "insight.pattern"))
	} else {
		fmt.Fprintln(out, translator.Translate(language, "insight.keep_logging"))
	}
	fmt.Fprintln(out)

	exportService := services.NewExportService(logs, translator, profile)
	_, err := io.WriteString(out, exportService.ReportText(language))
	return err
}

func percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}
