package ingest

import "time"

// baseLayout renders DD_MM_YYYY_HH_MM_SS
const baseLayout = "02_01_2006_15_04_05"

// Verdict suffixes used in object names
const (
	SuffixVoice   = "voice"
	SuffixNoVoice = "novoice"
)

// BaseIdentifier formats t as the second-resolution prefix shared by the
// staged file and the uploaded object
func BaseIdentifier(t time.Time) string {
	return t.Format(baseLayout)
}

// ObjectName returns the blob name for a classified clip
func ObjectName(baseID string, hasVoice bool) string {
	suffix := SuffixNoVoice
	if hasVoice {
		suffix = SuffixVoice
	}
	return baseID + "_" + suffix + ".wav"
}
