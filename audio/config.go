package audio

import "time"

type Config struct {
	// Output settings
	MasterVolume     float64 // Master gain into the destination
	RampTimeConstant float64 // setTarget time constant for smooth changes (seconds)

	// Entrainment settings
	CarrierFreq       float64 // Carrier tone for binaural and isochronic (Hz)
	EntrainmentVolume float64 // Used when the caller leaves the volume unset
	VolumeFloor       float64 // Entrainment gain never drops below this
	IsochronicBase    float64 // Carrier gain the LFO swings around
	IsochronicDepth   float64 // LFO amplitude on the carrier gain

	// Noise settings
	NoiseSeconds float64 // Length of each looped noise buffer
	NoiseStep    float64 // White noise weight in the random walk
	NoiseLeak    float64 // Random walk divisor
	NoiseGain    float64 // Make-up gain after the walk

	// Rain settings
	RainHighCutoff float64 // Lowpass for the brighter layer
	RainHighGain   float64
	RainLowCutoff  float64 // Lowpass for the darker layer
	RainLowGain    float64

	// Wind settings
	WindCenter    float64 // Bandpass center frequency
	WindQ         float64 // Bandpass resonance
	WindGustRate  float64 // LFO rate on the center frequency
	WindGustDepth float64 // LFO amplitude (Hz)
	SweepInterval time.Duration
	SweepStep     float64 // Radians added per sweep tick
	SweepDepth    float64 // Pan excursion

	// Om settings
	OmFreq   float64 // Sawtooth fundamental
	OmCutoff float64 // Lowpass cutoff

	// Fire settings
	FireURL string // Looped crackling sample
}
