package entity

import "strings"

// Stage is a product's development stage.
type Stage string

const (
	StageDiscovery    Stage = "discovery"
	StagePreclinical  Stage = "preclinical"
	StagePhase1       Stage = "phase1"
	StagePhase2       Stage = "phase2"
	StagePhase3       Stage = "phase3"
	StageApproved     Stage = "approved"
	StageMarket       Stage = "market"
	StageDiscontinued Stage = "discontinued"
)

// Stages lists every stage in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageDiscovery, StagePreclinical, StagePhase1, StagePhase2,
		StagePhase3, StageApproved, StageMarket, StageDiscontinued,
	}
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// Rank is the pipeline position of s, or -1 when unknown.
func (s Stage) Rank() int {
	for i, st := range Stages() {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStage normalizes common spellings ("Phase 2", "phase_2") to a Stage.
func ParseStage(raw string) (Stage, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)
	s := Stage(norm)
	return s, s.Valid()
}
