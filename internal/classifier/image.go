package classifier

import "math"

// NSFWThresholdPreset maps a profile age bracket to its NSFW block threshold.
type NSFWThresholdPreset string

const (
	NSFWPresetChild NSFWThresholdPreset = "child"
	NSFWPresetTeen  NSFWThresholdPreset = "teen"
	NSFWPresetAdult NSFWThresholdPreset = "adult"
)

// Threshold returns the fixed NSFW-block threshold for the preset.
func (p NSFWThresholdPreset) Threshold() float64 {
	switch p {
	case NSFWPresetChild:
		return 0.5
	case NSFWPresetTeen:
		return 0.7
	case NSFWPresetAdult:
		return 0.85
	default:
		return 0.7
	}
}

// NSFWPresetFromAge resolves an age in years to a threshold preset.
func NSFWPresetFromAge(age int) NSFWThresholdPreset {
	switch {
	case age < 13:
		return NSFWPresetChild
	case age < 18:
		return NSFWPresetTeen
	default:
		return NSFWPresetAdult
	}
}

// HeadShapeSoftmax collapses a model's raw output logits into an
// (sfw, nsfw) probability pair. Supports the two head shapes the spec
// requires: a 2-class head (sfw, nsfw) and a 5-class head
// (drawings, hentai, neutral, porn, sexy), where SFW = drawings+neutral and
// NSFW = hentai+porn+sexy. Any other width is a hard error, matching the
// original "other shapes are a hard error" requirement.
func HeadShapeSoftmax(logits []float64) (NSFWResult, error) {
	switch len(logits) {
	case 2:
		sfw, nsfw := softmax2(logits[0], logits[1])
		return NSFWResult{SFWProbability: sfw, NSFWProbability: nsfw}, nil
	case 5:
		probs := softmaxN(logits)
		// order: drawings, hentai, neutral, porn, sexy
		sfw := probs[0] + probs[2]
		nsfw := probs[1] + probs[3] + probs[4]
		return NSFWResult{SFWProbability: sfw, NSFWProbability: nsfw}, nil
	default:
		return NSFWResult{}, &ErrUnknownHeadShape{Width: len(logits)}
	}
}

func softmax2(a, b float64) (float64, float64) {
	probs := softmaxN([]float64{a, b})
	return probs[0], probs[1]
}

func softmaxN(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	exps := make([]float64, len(logits))
	for i, v := range logits {
		e := math.Exp(v - max)
		exps[i] = e
		sum += e
	}
	out := make([]float64, len(logits))
	for i, e := range exps {
		out[i] = e / sum
	}
	return out
}
