package scoring

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
)

// SittingAverages are the phase-level sitting metrics.
type SittingAverages struct {
	KneeFlexion     float64 `json:"knee_flexion"`
	HipControl      float64 `json:"hip_control"`
	SpinalAlignment float64 `json:"spinal_alignment"`
}

// RisingAverages are the phase-level rising metrics.
type RisingAverages struct {
	KneeExtension float64 `json:"knee_extension"`
	HipDrive      float64 `json:"hip_drive"`
	Stability     float64 `json:"stability"`
}

// Scores is the aggregated outcome of a run.
type Scores struct {
	SitScore        float64
	RiseScore       float64
	TotalScore      float64
	PosturalControl float64
	Balance         float64
	Coordination    float64
	Sitting         SittingAverages
	Rising          RisingAverages
}

// Aggregator combines phase metrics and support penalties. It holds no
// state beyond its parameters, so equal input gives equal output.
type Aggregator struct {
	p config.Params
}

// NewAggregator returns an Aggregator configured from p.
func NewAggregator(p config.Params) *Aggregator {
	return &Aggregator{p: p}
}

// Average returns the mean of the valid, finite scores in ms, or fallback
// when fewer than minSamples exist.
func Average(ms []Measurement, minSamples int, fallback float64) float64 {
	vals := make([]float64, 0, len(ms))
	for _, m := range ms {
		if m.Valid && finite(m.Score) {
			vals = append(vals, m.Score)
		}
	}
	if len(vals) < minSamples || len(vals) == 0 {
		return fallback
	}
	return stat.Mean(vals, nil)
}

// SittingAverages averages each sitting metric over frames.
func (a *Aggregator) SittingAverages(frames []SittingMetrics) SittingAverages {
	kf := make([]Measurement, len(frames))
	hc := make([]Measurement, len(frames))
	sa := make([]Measurement, len(frames))
	for i, f := range frames {
		kf[i], hc[i], sa[i] = f.KneeFlexion, f.HipControl, f.SpinalAlignment
	}
	return SittingAverages{
		KneeFlexion:     a.average(kf),
		HipControl:      a.average(hc),
		SpinalAlignment: a.average(sa),
	}
}

// RisingAverages averages each rising metric over frames.
func (a *Aggregator) RisingAverages(frames []RisingMetrics) RisingAverages {
	ke := make([]Measurement, len(frames))
	hd := make([]Measurement, len(frames))
	st := make([]Measurement, len(frames))
	for i, f := range frames {
		ke[i], hd[i], st[i] = f.KneeExtension, f.HipDrive, f.Stability
	}
	return RisingAverages{
		KneeExtension: a.average(ke),
		HipDrive:      a.average(hd),
		Stability:     a.average(st),
	}
}

func (a *Aggregator) average(ms []Measurement) float64 {
	return Average(ms, a.p.MinValidSamples, a.p.MissingDefault)
}

// Aggregate turns per-frame metrics and per-phase penalties into Scores.
func (a *Aggregator) Aggregate(sitting []SittingMetrics, rising []RisingMetrics, sitPenalty, risePenalty float64) Scores {
	p := a.p
	sit := a.SittingAverages(sitting)
	rise := a.RisingAverages(rising)

	sitRaw := 5 * (p.Sit.KneeFlexion*sit.KneeFlexion +
		p.Sit.HipControl*sit.HipControl +
		p.Sit.SpinalAlignment*sit.SpinalAlignment)
	riseRaw := 5 * (p.Rise.KneeExtension*rise.KneeExtension +
		p.Rise.HipDrive*rise.HipDrive +
		p.Rise.Stability*rise.Stability)

	sitScore := a.phaseScore(sitRaw, sitPenalty)
	riseScore := a.phaseScore(riseRaw, risePenalty)

	c := p.Composite
	return Scores{
		SitScore:   sitScore,
		RiseScore:  riseScore,
		TotalScore: srt.Round2(srt.Clamp(sitScore+riseScore, p.MinTotalScore, p.MaxTotalScore)),
		PosturalControl: index(
			c.PosturalSpinal*sit.SpinalAlignment,
			c.PosturalStability*rise.Stability,
		),
		Balance: index(
			c.BalanceHip*sit.HipControl,
			c.BalanceStability*rise.Stability,
		),
		Coordination: index(
			c.CoordKneeFlexion*sit.KneeFlexion,
			c.CoordKneeExtend*rise.KneeExtension,
			c.CoordHipDrive*rise.HipDrive,
		),
		Sitting: sit,
		Rising:  rise,
	}
}

func (a *Aggregator) phaseScore(raw, penalty float64) float64 {
	p := a.p
	if raw < p.MinPhaseScore {
		raw = p.MinPhaseScore
	}
	return srt.Round2(srt.Clamp(raw-penalty*p.PenaltyFactor, p.MinPhaseScore, p.MaxPhaseScore))
}

func index(vals ...float64) float64 {
	return srt.Clamp(stat.Mean(vals, nil), 0, 1)
}
