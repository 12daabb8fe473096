package similarity

import (
	"unicode/utf8"

	"warden/internal/history"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Pairs whose lengths differ by more than 2x cannot reach a useful
// similarity score, so they are skipped before the edit distance runs.
const (
	minLengthRatio = 0.5
	maxLengthRatio = 2.0
)

// Verdict is the result of one spam evaluation. It is computed fresh per
// message and never cached.
type Verdict struct {
	IsSpam              bool
	MatchedChannelCount int
	MatchedRecords      []history.Record
}

type Config struct {
	// Ratio in [0,1] above which two messages count as near-duplicates.
	Threshold float64
	// Distinct channels carrying a near-duplicate before the message is spam.
	ChannelThreshold int
	// Messages shorter than this are exempt from evaluation.
	MinLength int
}

// Detector flags users who post near-duplicate content across several
// channels. Evaluation is pure: it never mutates the history it reads.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Evaluate compares a new message against the user's history and counts
// the distinct channels where a near-duplicate appeared. The message's
// own channel counts as one match, so history only needs to cover
// ChannelThreshold-1 other channels.
func (d *Detector) Evaluate(text, channelID string, records []history.Record) Verdict {
	content := history.Normalize(text)
	if content == "" || len(content) < d.cfg.MinLength {
		return Verdict{}
	}
	if len(records) == 0 {
		return Verdict{}
	}

	contentLen := utf8.RuneCountInString(content)
	channels := make(map[string]struct{})
	var matched []history.Record

	for _, record := range records {
		if record.ChannelID == channelID {
			continue
		}
		recordLen := utf8.RuneCountInString(record.Content)
		if recordLen == 0 {
			continue
		}
		lengthRatio := float64(contentLen) / float64(recordLen)
		if lengthRatio < minLengthRatio || lengthRatio > maxLengthRatio {
			continue
		}
		if Ratio(content, record.Content) < d.cfg.Threshold {
			continue
		}
		if _, seen := channels[record.ChannelID]; !seen {
			channels[record.ChannelID] = struct{}{}
			matched = append(matched, record)
		}
	}

	// The current channel is where the message just landed.
	total := len(channels) + 1
	return Verdict{
		IsSpam:              total >= d.cfg.ChannelThreshold,
		MatchedChannelCount: total,
		MatchedRecords:      matched,
	}
}

// Ratio scores textual closeness of two strings in [0,1] from their
// Levenshtein distance. 1 means identical.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	alen := utf8.RuneCountInString(a)
	blen := utf8.RuneCountInString(b)
	longest := alen
	if blen > longest {
		longest = blen
	}
	if longest == 0 {
		return 1
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
