package planner

import "github.com/nx-media/playcore/internal/domain"

// planSubtitle runs the subtitle secondary pass (spec §4.B): pick the
// first subtitle stream whose language/format is accepted by one of the
// capability's subtitle profiles and decide its delivery method. Returns
// nil when the source has no subtitle streams or none are acceptable.
func planSubtitle(facts domain.SourceFacts, caps domain.Capabilities) *domain.SubtitlePlan {
	if len(facts.Subtitles) == 0 || len(caps.SubtitleProfiles) == 0 {
		return nil
	}

	for _, sub := range facts.Subtitles {
		for _, profile := range caps.SubtitleProfiles {
			if profile.Language != "" && profile.Language != sub.Language {
				continue
			}
			if profile.Format != "" && profile.Format != sub.Codec {
				continue
			}
			return &domain.SubtitlePlan{
				StreamIndex: sub.Index,
				Language:    sub.Language,
				Format:      profile.Format,
				Method:      profile.Method,
			}
		}
	}
	return nil
}
