package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/endotrack/internal/models"
)

// GetCatalog lists the symptom and feeling picks the log form offers. Name and
// Value are what POST /api/logs expects; Label is for display only.
func (handler *Handler) GetCatalog(c *fiber.Ctx) error {
	language := currentLanguage(c)
	messages := handler.i18n.Messages(language)

	builtins := models.DefaultBuiltinSymptoms()
	symptoms := make([]catalogSymptom, 0, len(builtins))
	for _, symptom := range builtins {
		symptoms = append(symptoms, catalogSymptom{
			Name:  symptom.Name,
			Key:   symptom.Key,
			Label: labelOrFallback(messages, "symptom."+symptom.Key, symptom.Name),
		})
	}

	knownFeelings := models.DefaultFeelings()
	feelings := make([]catalogFeeling, 0, len(knownFeelings))
	for _, feeling := range knownFeelings {
		feelings = append(feelings, catalogFeeling{
			Value: string(feeling),
			Label: labelOrFallback(messages, "feeling."+string(feeling), string(feeling)),
		})
	}

	return c.JSON(catalogResponse{
		Language:  language,
		Languages: handler.i18n.SupportedLanguages(),
		Symptoms:  symptoms,
		Feelings:  feelings,
	})
}

func labelOrFallback(messages map[string]string, key string, fallback string) string {
	if label, ok := messages[key]; ok && label != "" {
		return label
	}
	return fallback
}
