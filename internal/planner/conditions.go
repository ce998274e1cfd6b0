package planner

import (
	"strconv"
	"strings"

	"github.com/nx-media/playcore/internal/domain"
)

// Attributes is the flattened property bag a ProfileCondition is evaluated
// against. Keys are lower-case and match the property names a capability
// declaration is expected to use (spec §4.B).
type Attributes map[string]string

// ContainerAttributes describes the whole-container facts a
// ContainerProfile's conditions see.
func ContainerAttributes(container string, bitrate int64) Attributes {
	return Attributes{
		"container": container,
		"bitrate":   strconv.FormatInt(bitrate, 10),
	}
}

// VideoAttributes describes one video stream's facts.
func VideoAttributes(v domain.MediaStreamFacts) Attributes {
	return Attributes{
		"videocodec":  v.Codec,
		"videoprofile": v.Profile,
		"videolevel":  strconv.FormatFloat(v.Level, 'f', -1, 64),
		"videobitrate": strconv.FormatInt(v.Bitrate, 10),
		"width":       strconv.Itoa(v.Width),
		"height":      strconv.Itoa(v.Height),
		"framerate":   strconv.FormatFloat(v.FrameRate, 'f', -1, 64),
		"bitdepth":    strconv.Itoa(v.BitDepth),
		"refframes":   strconv.Itoa(v.RefFrames),
		"colorspace":  v.ColorSpace,
		"isanamorphic": "false",
	}
}

// AudioAttributes describes one audio stream's facts.
func AudioAttributes(a domain.MediaStreamFacts) Attributes {
	return Attributes{
		"audiocodec":  a.Codec,
		"audiobitrate": strconv.FormatInt(a.Bitrate, 10),
		"channels":    strconv.Itoa(a.Channels),
		"samplerate":  strconv.Itoa(a.SampleRate),
		"language":    a.Language,
	}
}

// SubtitleAttributes describes one subtitle stream's facts.
func SubtitleAttributes(s domain.MediaStreamFacts) Attributes {
	return Attributes{
		"subtitlecodec": s.Codec,
		"language":      s.Language,
	}
}

// Merge combines attribute bags, later bags winning on key collision.
func Merge(bags ...Attributes) Attributes {
	out := Attributes{}
	for _, b := range bags {
		for k, v := range b {
			out[k] = v
		}
	}
	return out
}

// Evaluate applies one ProfileCondition against attrs.
func Evaluate(cond domain.ProfileCondition, attrs Attributes) bool {
	actual, present := attrs[strings.ToLower(cond.Property)]
	switch cond.Operator {
	case domain.OpEquals:
		return present && strings.EqualFold(actual, cond.Value)
	case domain.OpNotEquals:
		return !present || !strings.EqualFold(actual, cond.Value)
	case domain.OpEqualsAny:
		if !present {
			return false
		}
		for _, v := range strings.Split(cond.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(v), actual) {
				return true
			}
		}
		return false
	case domain.OpContains:
		return present && strings.Contains(strings.ToLower(actual), strings.ToLower(cond.Value))
	case domain.OpGreaterThanEqual:
		af, aok := parseFloat(actual)
		vf, vok := parseFloat(cond.Value)
		return present && aok && vok && af >= vf
	case domain.OpLessThanEqual:
		af, aok := parseFloat(actual)
		vf, vok := parseFloat(cond.Value)
		return present && aok && vok && af <= vf
	default:
		return false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// EvaluateGate runs conds against attrs, considering only conditions for
// which gate(cond) is true. It returns whether every gated condition
// passed and the subset that failed (in declaration order).
func EvaluateGate(conds []domain.ProfileCondition, attrs Attributes, gate func(domain.ProfileCondition) bool) (ok bool, failed []domain.ProfileCondition) {
	ok = true
	for _, c := range conds {
		if !gate(c) {
			continue
		}
		if !Evaluate(c, attrs) {
			ok = false
			failed = append(failed, c)
		}
	}
	return ok, failed
}

func requiredGate(c domain.ProfileCondition) bool { return c.IsRequired }

func transcodeGate(c domain.ProfileCondition) bool { return c.IsRequiredForTranscoding }

// containerListContains reports whether container appears (case
// insensitively) in a comma-delimited profile container list. An empty
// list means "any container".
func containerListContains(list []string, container string) bool {
	if len(list) == 0 {
		return true
	}
	for _, entry := range list {
		for _, c := range strings.Split(entry, ",") {
			if strings.EqualFold(strings.TrimSpace(c), container) {
				return true
			}
		}
	}
	return false
}

func codecListContains(list []string, codec string) bool {
	if len(list) == 0 {
		return true
	}
	for _, c := range list {
		if strings.EqualFold(strings.TrimSpace(c), codec) {
			return true
		}
	}
	return false
}
