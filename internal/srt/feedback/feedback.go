// Package feedback turns aggregated scores into user-facing strengths,
// improvements and recommendations. Messages are emitted in a fixed order
// (knee, hip, balance, posture, support) because clients show the lists
// verbatim.
package feedback

import (
	"fmt"
	"strings"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/srt/scoring"
)

// Feedback is the qualitative part of a report.
type Feedback struct {
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

const (
	kneeStrength  = "Excellent knee flexion control while sitting down"
	kneeImprove   = "Limited knee flexion while sitting down"
	kneeRecommend = "Practise slow squats to a chair to build knee range and control"

	hipStrength  = "Strong hip drive when rising"
	hipImprove   = "Weak hip drive when standing up"
	hipRecommend = "Strengthen the hip extensors with bridges and repeated sit-to-stands"

	balanceSevere          = "Significant balance difficulty through the movement"
	balanceSevereRecommend = "Work on balance under supervision, for example with a physiotherapist"
	balanceMild            = "Balance could be steadier through the transition"
	balanceMildRecommend   = "Add single-leg stands and heel-to-toe walking to your routine"

	postureSpinal          = "Trunk alignment is limiting postural control"
	postureSpinalRecommend = "Keep the back straight as you move; core work such as planks helps"
	postureGeneral         = "Postural control could be improved"
	postureRecommend       = "Practise the movement slowly in front of a mirror to keep the trunk steady"

	supportNone          = "No supports needed to sit down or rise"
	supportHandRecommend = "Practise rising without pushing off with your hands, starting from a higher seat"
	supportKneeRecommend = "Build leg strength so you can rise without kneeling"
)

type builder struct {
	f Feedback
}

func (b *builder) strength(s string) { b.f.Strengths = append(b.f.Strengths, s) }

func (b *builder) improve(s, recommendation string) {
	b.f.Improvements = append(b.f.Improvements, s)
	b.f.Recommendations = append(b.f.Recommendations, recommendation)
}

// Synthesize builds feedback from scores and the support observed across
// both phases. It is a pure function of its arguments.
func Synthesize(p config.Params, s scoring.Scores, support srt.SupportSet) Feedback {
	b := builder{f: Feedback{
		Strengths:       []string{},
		Improvements:    []string{},
		Recommendations: []string{},
	}}

	switch kf := s.Sitting.KneeFlexion; {
	case kf > p.Excellent:
		b.strength(kneeStrength)
	case kf < p.Improvement:
		b.improve(kneeImprove, kneeRecommend)
	}

	switch hd := s.Rising.HipDrive; {
	case hd > p.Excellent:
		b.strength(hipStrength)
	case hd < p.Improvement:
		b.improve(hipImprove, hipRecommend)
	}

	switch {
	case s.Balance < p.Improvement:
		b.improve(balanceSevere, balanceSevereRecommend)
	case s.Balance < p.Good:
		b.improve(balanceMild, balanceMildRecommend)
	}

	if s.PosturalControl < p.Good {
		if s.Sitting.SpinalAlignment < p.Improvement {
			b.improve(postureSpinal, postureSpinalRecommend)
		} else {
			b.improve(postureGeneral, postureRecommend)
		}
	}

	if support.Empty() {
		b.strength(supportNone)
	} else {
		rec := supportKneeRecommend
		if support.Has(srt.HandSupport) {
			rec = supportHandRecommend
		}
		b.improve(supportUsed(support), rec)
	}

	return b.f
}

func supportUsed(set srt.SupportSet) string {
	names := make([]string, 0, 2)
	for _, t := range set.Types() {
		names = append(names, strings.ToLower(t.String()))
	}
	return fmt.Sprintf("Used %s support during the movement", strings.Join(names, " and "))
}
