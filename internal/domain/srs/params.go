package srs

// Params defines all configurable parameters for the SM-2 scheduling
// algorithm.
type Params struct {
	// Core limits
	MinEaseFactor float64

	// Intervals in days for the first and second successful repetitions.
	// Later repetitions grow multiplicatively by the ease factor.
	FirstInterval  int
	SecondInterval int

	// Interval in days after a lapse (quality below PassThreshold).
	LapseInterval int

	// Quality ratings at or above this value count as a successful
	// repetition; below it the item lapses.
	PassThreshold int

	// Upper bound on the interval in days. Zero means unbounded.
	MaxInterval int
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance.
type ParamsConfig struct {
	MinEaseFactor  float64
	FirstInterval  int
	SecondInterval int
	LapseInterval  int
	PassThreshold  int
	MaxInterval    int
}

// NewDefaultParams creates a new Params instance with the standard SM-2
// values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:  1.3,
		FirstInterval:  1,
		SecondInterval: 6,
		LapseInterval:  1,
		PassThreshold:  3,
		MaxInterval:    365,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero-valued fields keep their defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.MaxInterval > 0 {
		params.MaxInterval = config.MaxInterval
	}

	return params
}
