package httpapi

import "github.com/nx-media/playcore/internal/domain"

// seedRequest is the wire shape of a playlist seed (spec §3 "Seeds", §4.D).
// startPlayback's minimal `{ itemId }` form is sugar for a single-item
// seed; richer requests supply `seed` directly.
type seedRequest struct {
	Type           string   `json:"type"`
	OriginatorID   string   `json:"originatorId,omitempty"`
	ExplicitIDs    []string `json:"explicitIds,omitempty"`
	LibrarySection string   `json:"librarySection,omitempty"`
	Filter         string   `json:"filter,omitempty"`
	StartIndex     int      `json:"startIndex,omitempty"`
	Shuffle        bool     `json:"shuffle,omitempty"`
	Repeat         bool     `json:"repeat,omitempty"`
}

func (s seedRequest) toDomain() domain.Seed {
	return domain.Seed{
		Type:           domain.SeedType(s.Type),
		OriginatorID:   s.OriginatorID,
		ExplicitIDs:    s.ExplicitIDs,
		LibrarySection: s.LibrarySection,
		Filter:         s.Filter,
		StartIndex:     s.StartIndex,
		Shuffle:        s.Shuffle,
		Repeat:         s.Repeat,
	}
}

type itemViewResponse struct {
	Index        int    `json:"index"`
	ItemID       string `json:"itemId"`
	Title        string `json:"title"`
	ParentTitle  string `json:"parentTitle,omitempty"`
	DurationMs   int64  `json:"durationMs"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PlaybackURL  string `json:"playbackUrl,omitempty"`
}

func itemViewsFrom(views []domain.PlaylistItemView) []itemViewResponse {
	out := make([]itemViewResponse, len(views))
	for i, v := range views {
		out[i] = itemViewResponse{
			Index:        v.Index,
			ItemID:       v.ItemID,
			Title:        v.Title,
			ParentTitle:  v.ParentTitle,
			DurationMs:   v.DurationMs,
			ThumbnailURL: v.ThumbnailURL,
			PlaybackURL:  v.PlaybackURL,
		}
	}
	return out
}

// navigatePayloadResponse is the wire shape shared by chunk/navigate/jump/
// mode (spec §6 "PlaylistNavigatePayload").
type navigatePayloadResponse struct {
	Items        []itemViewResponse `json:"items"`
	CurrentIndex int                `json:"currentIndex"`
	TotalCount   int                `json:"totalCount"`
	HasMore      bool               `json:"hasMore"`
	Shuffle      bool               `json:"shuffle"`
	Repeat       bool               `json:"repeat"`
}
