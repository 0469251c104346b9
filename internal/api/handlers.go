package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/endotrack/internal/i18n"
	"github.com/terraincognita07/endotrack/internal/services"
	"go.uber.org/zap"
)

type locatedClock interface {
	Location() *time.Location
}

func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("log store is required")
	}
	if deps.Clock == nil {
		deps.Clock = services.NewSystemClock(time.UTC)
	}
	if deps.I18n == nil {
		manager, err := i18n.NewEmbeddedManager(i18n.LangPT)
		if err != nil {
			return nil, err
		}
		deps.I18n = manager
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	location := time.UTC
	if located, ok := deps.Clock.(locatedClock); ok && located.Location() != nil {
		location = located.Location()
	}

	return &Handler{
		store:         deps.Store,
		clock:         deps.Clock,
		location:      location,
		i18n:          deps.I18n,
		exportService: services.NewExportService(deps.Store, deps.I18n, deps.Profile),
		metrics:       deps.Metrics,
		gatherer:      deps.Gatherer,
		logger:        deps.Logger.Named("api"),
	}, nil
}
