package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// validateContent performs all structural checks on catalog content.
// Returns a combined error describing all problems found, or nil if valid.
func validateContent(chapters []Chapter, creatures []Creature, projects []Project) error {
	var errs []string

	if len(chapters) == 0 {
		errs = append(errs, "catalog has no chapters")
	}

	// Unlocking walks chapter IDs by +1, so they must be exactly 1..N.
	for i, ch := range chapters {
		if ch.ID != i+1 {
			errs = append(errs, fmt.Sprintf("chapter at position %d has ID %d, want %d", i+1, ch.ID, i+1))
		}
		errs = append(errs, validateChapter(ch)...)
	}

	creatureIDs := make(map[int]bool, len(creatures))
	for _, cr := range creatures {
		if creatureIDs[cr.ID] {
			errs = append(errs, fmt.Sprintf("duplicate creature ID: %d", cr.ID))
		}
		creatureIDs[cr.ID] = true
		if !cr.Rarity.Valid() {
			errs = append(errs, fmt.Sprintf("creature %d has unknown rarity %q", cr.ID, cr.Rarity))
		}
		if strings.TrimSpace(cr.Name) == "" {
			errs = append(errs, fmt.Sprintf("creature %d has no name", cr.ID))
		}
	}

	for i, p := range projects {
		if p.ID != i+1 {
			errs = append(errs, fmt.Sprintf("project at position %d has ID %d, want %d", i+1, p.ID, i+1))
		}
		if p.Points <= 0 {
			errs = append(errs, fmt.Sprintf("project %d must award positive points", p.ID))
		}
		if len(p.Checks) == 0 {
			errs = append(errs, fmt.Sprintf("project %d has no checks", p.ID))
		}
		for j, chk := range p.Checks {
			if len(chk.All) == 0 && len(chk.Any) == 0 && len(chk.None) == 0 && chk.Pattern == "" {
				errs = append(errs, fmt.Sprintf("project %d check %d has no conditions", p.ID, j+1))
			}
			if chk.Pattern != "" {
				if _, err := regexp.Compile(chk.Pattern); err != nil {
					errs = append(errs, fmt.Sprintf("project %d check %d: bad pattern: %v", p.ID, j+1, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(errs, "\n  "))
	}
	return nil
}

func validateChapter(ch Chapter) []string {
	var errs []string

	if strings.TrimSpace(ch.Title) == "" {
		errs = append(errs, fmt.Sprintf("chapter %d has no title", ch.ID))
	}
	if len(ch.Flashcards) == 0 && len(ch.Questions) == 0 {
		errs = append(errs, fmt.Sprintf("chapter %d has no flashcards or questions", ch.ID))
	}

	cardIDs := make(map[int]bool, len(ch.Flashcards))
	for _, fc := range ch.Flashcards {
		if cardIDs[fc.ID] {
			errs = append(errs, fmt.Sprintf("chapter %d: duplicate flashcard ID %d", ch.ID, fc.ID))
		}
		cardIDs[fc.ID] = true
	}

	questionIDs := make(map[int]bool, len(ch.Questions))
	for _, q := range ch.Questions {
		if questionIDs[q.ID] {
			errs = append(errs, fmt.Sprintf("chapter %d: duplicate question ID %d", ch.ID, q.ID))
		}
		questionIDs[q.ID] = true
		if len(q.Options) < 2 {
			errs = append(errs, fmt.Sprintf("chapter %d question %d needs at least 2 options", ch.ID, q.ID))
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			errs = append(errs, fmt.Sprintf("chapter %d question %d: answer index %d out of range", ch.ID, q.ID, q.Answer))
		}
	}
	return errs
}
