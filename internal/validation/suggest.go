package validation

import (
	"fmt"

	"github.com/ecompta-dev/ecompta/internal/model"
)

const (
	// captureQualityBelow is the score under which capture advice is given.
	captureQualityBelow = 80
	// templateMinLines is the line count from which an entry without a
	// reference is worth turning into a template.
	templateMinLines = 3
)

// Suggest derives improvement suggestions from the final score and the shape
// of the entry. It does not look at rule outcomes.
func Suggest(e *model.Entry, score int) []model.Suggestion {
	suggestions := []model.Suggestion{}
	if score < captureQualityBelow {
		suggestions = append(suggestions, NewSuggestion(model.SuggestionCaptureQuality))
	}
	if len(e.Lines) >= templateMinLines && e.Reference == "" {
		suggestions = append(suggestions, NewSuggestion(model.SuggestionReusableTemplate))
	}
	return suggestions
}

// NewSuggestion returns the canonical suggestion for kind.
func NewSuggestion(kind model.SuggestionKind) model.Suggestion {
	switch kind {
	case model.SuggestionCaptureQuality:
		return model.Suggestion{
			Kind:            kind,
			Title:           "Improve capture quality",
			Description:     "Complete the missing information to streamline validation",
			ExpectedBenefit: "Shorter validation time and fewer errors",
			Ease:            model.EaseEasy,
			Impact:          model.ImpactMedium,
		}
	case model.SuggestionReusableTemplate:
		return model.Suggestion{
			Kind:            kind,
			Title:           "Create a template",
			Description:     "This entry could become a reusable template",
			ExpectedBenefit: "Faster capture of similar entries",
			Ease:            model.EaseVeryEasy,
			Impact:          model.ImpactStrong,
		}
	}
	panic(fmt.Sprintf("validation: unknown suggestion kind %q", kind))
}
