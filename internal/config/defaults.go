package config

const (
	defaultCorpusDB       = "~/.local/share/cardsight/corpus.db"
	defaultIndexPath      = "~/.local/share/cardsight/cards.idx"
	defaultLogDir         = "~/.local/share/cardsight/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultWidth          = 224
	defaultHeight         = 312
	defaultCardAspect     = 0.716
	defaultMaxKeypoints   = 300
	defaultFASTThreshold  = 20
	defaultCompileWorkers = 4
	defaultMatchWorkers   = 4
)

// Default returns a Config populated with repository defaults. Matcher
// policy fields are left zero so the matcher applies its own defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CorpusDB:  defaultCorpusDB,
			IndexPath: defaultIndexPath,
			LogDir:    defaultLogDir,
		},
		Extractor: Extractor{
			Width:         defaultWidth,
			Height:        defaultHeight,
			CardAspect:    defaultCardAspect,
			MaxKeypoints:  defaultMaxKeypoints,
			FASTThreshold: defaultFASTThreshold,
		},
		Compile: Compile{
			Workers: defaultCompileWorkers,
		},
		Matcher: Matcher{
			Workers: defaultMatchWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
