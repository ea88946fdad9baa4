package audio

import "github.com/simukka/trance/common"

// NoiseSamples generates brown-ish noise: white noise pushed through a leaky
// integrator, then scaled back up to an audible level.
func NoiseSamples(rng *common.SeededRNG, sampleRate, seconds float64) []float64 {
	n := int(sampleRate * seconds)
	if n < 1 {
		return nil
	}
	out := make([]float64, n)
	last := 0.0
	for i := range out {
		v := (last + AudioConfig.NoiseStep*rng.Bipolar()) / AudioConfig.NoiseLeak
		last = v
		out[i] = v * AudioConfig.NoiseGain
	}
	return out
}

// noiseSource builds a looping buffer source over a fresh noise buffer. The
// caller starts it.
func noiseSource(ctx Context, rng *common.SeededRNG) (BufferSource, error) {
	buf, err := ctx.NewBuffer(NoiseSamples(rng, ctx.SampleRate(), AudioConfig.NoiseSeconds))
	if err != nil {
		return nil, err
	}
	src, err := ctx.NewBufferSource()
	if err != nil {
		return nil, err
	}
	src.SetBuffer(buf)
	src.SetLoop(true)
	return src, nil
}
