package audio

import "time"

var AudioConfig = Config{
	// Output settings
	MasterVolume:     1.0,
	RampTimeConstant: 0.1,

	// Entrainment settings
	CarrierFreq:       200,
	EntrainmentVolume: 0.3,
	VolumeFloor:       0.001,
	IsochronicBase:    0.5,
	IsochronicDepth:   0.5,

	// Noise settings
	NoiseSeconds: 2,
	NoiseStep:    0.02,
	NoiseLeak:    1.02,
	NoiseGain:    3.5,

	// Rain settings
	RainHighCutoff: 800,
	RainHighGain:   0.6,
	RainLowCutoff:  300,
	RainLowGain:    0.4,

	// Wind settings
	WindCenter:    400,
	WindQ:         1,
	WindGustRate:  0.1,
	WindGustDepth: 200,
	SweepInterval: 100 * time.Millisecond,
	SweepStep:     0.05,
	SweepDepth:    0.8,

	// Om settings
	OmFreq:   110,
	OmCutoff: 150,

	// Fire settings
	FireURL: "https://upload.wikimedia.org/wikipedia/commons/e/e0/Fire_crackling.ogg",
}
