package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/endotrack/internal/models"
	"github.com/terraincognita07/endotrack/internal/services"
)

type LogSubmitter interface {
	Submit(ctx context.Context, draft services.DraftEntry) (models.LogEntry, error)
}

type SubmitInput struct {
	Feeling          string
	Symptoms         []string
	MissedMedication bool
	SOSMedication    string
}

func RunSubmitCommand(ctx context.Context, store LogSubmitter, input SubmitInput, out io.Writer) error {
	entry, err := store.Submit(ctx, services.DraftEntry{
		Feeling:         models.Feeling(strings.TrimSpace(input.Feeling)),
		Symptoms:        input.Symptoms,
		MedicationTaken: !input.MissedMedication,
		SOSMedication:   input.SOSMedication,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDraft) {
			return fmt.Errorf("invalid log entry (feeling must be one of %s): %w", strings.Join(feelingNames(), ", "), err)
		}
		return fmt.Errorf("save log: %w", err)
	}

	fmt.Fprintf(out, "Saved %s: pain %d/10, bleeding %s, medication taken: %s\n",
		entry.DateISO,
		entry.PainLevel,
		entry.Bleeding,
		yesNo(entry.MedicationTaken),
	)
	if len(entry.Symptoms) > 0 {
		fmt.Fprintf(out, "Symptoms: %s\n", strings.Join(entry.Symptoms, ", "))
	}
	if entry.SOSMedication != "" {
		fmt.Fprintf(out, "SOS medication: %s\n", entry.SOSMedication)
	}
	return nil
}

func feelingNames() []string {
	feelings := models.DefaultFeelings()
	names := make([]string, 0, len(feelings))
	for _, feeling := range feelings {
		names = append(names, string(feeling))
	}
	return names
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
