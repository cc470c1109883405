package insight

import (
	"encoding/json"
	"regexp"
)

// Source tags how a model reply was turned into an InsightResult.
type Source string

const (
	// SourceFenced means the reply carried a ```json fenced block.
	SourceFenced Source = "fenced"
	// SourceRawJSON means the whole reply parsed as a JSON object.
	SourceRawJSON Source = "raw_json"
	// SourceFallback means the reply was not parseable and the summary
	// holds the raw text verbatim.
	SourceFallback Source = "fallback"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Parse turns raw model output into an InsightResult. It never fails:
// a fenced ```json block is tried first, then the whole text as JSON,
// and anything else degrades to a fallback result whose summary is the
// raw text untouched.
//
// A fenced block that does not parse is not retried as raw text; a model
// that fenced something broken did not mean the surrounding prose as JSON.
func Parse(raw string) (InsightResult, Source) {
	if match := fencedJSON.FindStringSubmatch(raw); match != nil {
		var res InsightResult
		if err := json.Unmarshal([]byte(match[1]), &res); err == nil {
			return normalize(res), SourceFenced
		}
		return fallback(raw), SourceFallback
	}

	var res InsightResult
	if err := json.Unmarshal([]byte(raw), &res); err == nil {
		return normalize(res), SourceRawJSON
	}
	return fallback(raw), SourceFallback
}

// normalize guarantees list fields are non-nil so the JSON the API serves
// always has arrays, never null.
func normalize(res InsightResult) InsightResult {
	if res.SkillsObserved == nil {
		res.SkillsObserved = []string{}
	}
	if res.AttentionPoints == nil {
		res.AttentionPoints = []string{}
	}
	if res.Recommendations == nil {
		res.Recommendations = []Recommendation{}
	}
	if res.Disclaimer == "" {
		res.Disclaimer = Disclaimer
	}
	return res
}

func fallback(raw string) InsightResult {
	return InsightResult{
		Summary:         raw,
		SkillsObserved:  []string{},
		AttentionPoints: []string{},
		Recommendations: []Recommendation{},
		Disclaimer:      Disclaimer,
	}
}
