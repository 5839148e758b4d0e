package compiler

import (
	"log/slog"
	"runtime"
	"time"

	"cardsight/internal/config"
	"cardsight/internal/fingerprint"
	"cardsight/internal/index"
)

// Options configures a compile.
type Options struct {
	Params  fingerprint.Params
	ANN     index.ANNConfig
	Workers int
	// Limit caps the number of corpus cards considered; 0 means all.
	Limit int
	// Source labels the corpus in the index metadata.
	Source string
	Logger *slog.Logger
	// Progress, if set, is called after every card with the number of cards
	// processed so far. Calls are serialised.
	Progress func(done, total int)

	now func() time.Time
}

// OptionsFromConfig maps the extractor and compile sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Params: fingerprint.Params{
			Width:         cfg.Extractor.Width,
			Height:        cfg.Extractor.Height,
			CardAspect:    cfg.Extractor.CardAspect,
			MaxKeypoints:  cfg.Extractor.MaxKeypoints,
			FASTThreshold: cfg.Extractor.FASTThreshold,
		},
		Workers: cfg.Compile.Workers,
	}
}

func (o Options) normalized() Options {
	o.Params = o.Params.Normalized()
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Limit < 0 {
		o.Limit = 0
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}
