// Package matching ranks projects for a viewer.
//
// The score blends three components with fixed weights: skill overlap (0.5),
// locality (0.3) and availability (0.2). The result is an integer in [0, 100]
// rounded half up.
package matching

import (
	"github.com/samkraft/samkraft-api/internal/models"
)

const (
	// NeutralOverlap is the skill overlap of a project without required skills.
	NeutralOverlap = 0.5
	// LocalityMatch and LocalityBaseline are the locality component values.
	LocalityMatch    = 1.0
	LocalityBaseline = 0.35

	// Weights expressed in tenths of a percent so the blend stays integral.
	overlapWeight      = 500
	localityMatch      = 300
	localityBaseline   = 105
	availabilityWeight = 200
)

// Viewer describes the user a project list is ranked for.
type Viewer struct {
	Skills       map[string]struct{}
	Municipality string
}

// NewViewer builds a viewer from a list of skill names. Duplicates collapse.
func NewViewer(skills []string, municipality string) Viewer {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	return Viewer{Skills: set, Municipality: municipality}
}

func (v Viewer) HasSkill(name string) bool {
	_, ok := v.Skills[name]
	return ok
}

// Breakdown holds the individual components of a match score.
type Breakdown struct {
	Overlap      float64 `json:"overlap"`
	Locality     float64 `json:"locality"`
	Availability float64 `json:"availability"`
	Score        int     `json:"score"`
}

// Score returns the match score of project p for viewer v.
func Score(p models.Project, v Viewer) int {
	return Explain(p, v).Score
}

// Explain returns the score together with its components.
func Explain(p models.Project, v Viewer) Breakdown {
	matched, required := overlap(p.SkillsRequired, v)

	locality := localityBaseline
	b := Breakdown{Locality: LocalityBaseline}
	if v.Municipality != "" && v.Municipality == p.Municipality {
		locality = localityMatch
		b.Locality = LocalityMatch
	}

	availability := 0
	if p.CurrentParticipants < p.MaxParticipants {
		availability = availabilityWeight
		b.Availability = 1
	}

	b.Overlap = float64(matched) / float64(required)

	// score = round(500*m/r + locality + availability) / 10, computed as a
	// single fraction over 10*r so that halves round up exactly.
	num := overlapWeight*matched + (locality+availability)*required
	den := 10 * required
	b.Score = (2*num + den) / (2 * den)

	return b
}

// overlap returns the matched and required skill counts. A project without
// required skills yields 1/2, the neutral overlap.
func overlap(required []string, v Viewer) (int, int) {
	if len(required) == 0 {
		return 1, 2
	}

	matched := 0
	for _, skill := range required {
		if v.HasSkill(skill) {
			matched++
		}
	}
	return matched, len(required)
}
