package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

const maxPromptBioRunes = 400

const rankingSystemPrompt = `You help people find a therapist who fits what they are going through. You will receive a description of the person's issue and a list of therapists. Score how well each therapist fits the issue.

Respond with a JSON array and nothing else. The array must contain exactly one object per therapist:
[{"id": "<therapist id, copied exactly>", "score": <integer from 1 to 10>, "reason": "<one short sentence>"}]
If you are required to return a JSON object, put the array under the key "rankings".
Higher scores mean a better fit. Judge only from the profile text given. Do not invent credentials.`

// buildRankingPrompt renders the issue followed by one block per candidate.
// Field order inside a block never changes.
func buildRankingPrompt(issue string, candidates []entities.TherapistSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Issue: %s\n\n", strings.TrimSpace(issue))
	fmt.Fprintf(&b, "Therapists (%d):\n", len(candidates))

	for i, c := range candidates {
		fmt.Fprintf(&b, "\n--- Therapist %d ---\n", i+1)
		fmt.Fprintf(&b, "id: %s\n", c.ID)
		fmt.Fprintf(&b, "name: %s\n", c.Name)
		fmt.Fprintf(&b, "specialties: %s\n", joinOrNone(c.Specialties))
		fmt.Fprintf(&b, "languages: %s\n", joinOrNone(c.Languages))
		fmt.Fprintf(&b, "insurance: %s\n", orNone(c.Insurance))
		fmt.Fprintf(&b, "fee: %s\n", orNone(c.Fee))
		fmt.Fprintf(&b, "location: %s\n", orNone(c.Location))
		fmt.Fprintf(&b, "modalities: %s\n", joinOrNone(c.Modalities))
		fmt.Fprintf(&b, "bio: %s\n", orNone(truncateRunes(c.Bio, maxPromptBioRunes)))
	}

	b.WriteString("\nReturn the JSON array now.")
	return b.String()
}

func joinOrNone(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "none listed"
	}
	return strings.Join(parts, ", ")
}

func orNone(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "none listed"
	}
	return value
}

func truncateRunes(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
