package domain

import "time"

// ConditionOperator enumerates comparisons a ProfileCondition can apply
// between a source media attribute and a declared value.
type ConditionOperator string

const (
	OpEquals             ConditionOperator = "equals"
	OpNotEquals          ConditionOperator = "notEquals"
	OpGreaterThanEqual   ConditionOperator = "greaterThanEqual"
	OpLessThanEqual      ConditionOperator = "lessThanEqual"
	OpEqualsAny          ConditionOperator = "equalsAny"
	OpContains           ConditionOperator = "contains"
)

// ProfileCondition is one clause of a direct-play/transcoding/container/
// codec profile. Property names match the attribute keys produced by
// ContainerAttributes, VideoAttributes, AudioAttributes and
// SubtitleAttributes (see planner/conditions.go): "videocodec", "width",
// "bitdepth", "channels", etc.
type ProfileCondition struct {
	Property                string
	Operator                ConditionOperator
	Value                   string
	IsRequired              bool
	IsRequiredForTranscoding bool
}

// MediaType scopes a profile to the kind of content it applies to.
type MediaType string

const (
	MediaVideo MediaType = "Video"
	MediaAudio MediaType = "Audio"
	MediaPhoto MediaType = "Photo"
)

// DirectPlayProfile allows byte-for-byte delivery when the source matches.
type DirectPlayProfile struct {
	MediaType   MediaType
	Container   []string // entries may be comma-delimited; the planner splits them when matching
	VideoCodec  []string
	AudioCodec  []string
}

// TranscodingProfile is a candidate output for Component B's transcode
// branch: a container/protocol pair plus the codecs and conditions that
// govern whether transcoding is required and what it targets.
type TranscodingProfile struct {
	Container        string
	Protocol         Protocol
	VideoCodec       []string
	AudioCodec       []string
	MaxAudioChannels int
	Conditions       []ProfileCondition
	Priority         int
}

// ContainerProfile applies conditions to the whole container regardless of
// codec.
type ContainerProfile struct {
	Type       MediaType
	Container  []string
	Conditions []ProfileCondition
}

// CodecProfile applies conditions keyed by a specific codec and, optionally,
// a specific container.
type CodecProfile struct {
	Type       MediaType
	Codec      []string
	Container  []string
	Conditions []ProfileCondition
}

// SubtitleDeliveryMethod is how a subtitle stream reaches the client.
type SubtitleDeliveryMethod string

const (
	SubtitleExternal SubtitleDeliveryMethod = "external"
	SubtitleEmbed    SubtitleDeliveryMethod = "embed"
	SubtitleEncode   SubtitleDeliveryMethod = "encode"
)

// SubtitleProfile describes how the client wants a subtitle format
// delivered.
type SubtitleProfile struct {
	Format   string
	Method   SubtitleDeliveryMethod
	Protocol Protocol
	Language string
}

// ResponseProfile overrides the MIME type returned for a given
// (media type, container) pair.
type ResponseProfile struct {
	Type      MediaType
	Container string
	MimeType  string
}

// Capabilities is the declarative body of a client's playback capability
// declaration.
type Capabilities struct {
	MaxStreamingBitrate int64
	MaxStaticBitrate    int64
	MaxMusicBitrate     int64

	DirectPlayProfiles   []DirectPlayProfile
	TranscodingProfiles  []TranscodingProfile
	ContainerProfiles    []ContainerProfile
	CodecProfiles        []CodecProfile
	SubtitleProfiles     []SubtitleProfile
	ResponseProfiles     []ResponseProfile

	SupportedImageFormats []string

	SupportsDash        bool
	SupportsHls         bool
	SupportsHdr         bool
	SupportsToneMapping bool
}

// CapabilityProfile is one version of a session's declared capabilities.
// (sessionId, Version) is unique; the effective profile is always the
// highest Version observed for a session.
type CapabilityProfile struct {
	SessionID   string
	Version     int
	DeviceID    string
	DeviceName  string
	Capabilities Capabilities
	DeclaredAt  time.Time
}

// DefaultCapabilities is the minimal profile synthesized when a session has
// never declared one: DASH supported, no direct-play/transcoding profiles,
// high bitrate caps. The planner routes everything through Transcode
// against this profile because nothing ever passes the Direct-Play or
// Direct-Stream trial.
func DefaultCapabilities() Capabilities {
	const highCap = 800_000_000 // 800 Mbps: effectively "uncapped" for the Transcode trial's bitrate math
	return Capabilities{
		MaxStreamingBitrate: highCap,
		MaxStaticBitrate:    highCap,
		MaxMusicBitrate:     highCap,
		SupportsDash:        true,
	}
}
