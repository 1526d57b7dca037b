package translation

import "strings"

// StubEngineConfig configures the stub translation engine behavior.
type StubEngineConfig struct {
	// Dictionary maps source text to translated text per target language.
	// If a lookup misses, the engine returns "[LANG] " prefix + original.
	Dictionary map[string]map[string]string // [targetLang][sourceText]translatedText
	// DetectedLang is reported as the detected source language when the
	// job did not specify one.
	DetectedLang string
	// Confidence is the score attached to every translation.
	Confidence float64
}

// DefaultStubEngineConfig returns sensible defaults for testing.
func DefaultStubEngineConfig() *StubEngineConfig {
	return &StubEngineConfig{
		Dictionary: map[string]map[string]string{
			"es": {
				"Hello":         "Hola",
				"Good morning.": "Buenos días.",
				"Thank you.":    "Gracias.",
			},
			"fr": {
				"Hello":         "Bonjour",
				"Good morning.": "Bonjour.",
				"Thank you.":    "Merci.",
			},
		},
		DetectedLang: "en",
		Confidence:   0.92,
	}
}

// StubEngine is a deterministic in-process translation engine. It stands
// in for the real machine-translation engine in tests and local
// development, speaking the same job/result shapes.
type StubEngine struct {
	config *StubEngineConfig
}

// NewStubEngine creates a stub engine with the given config.
func NewStubEngine(config *StubEngineConfig) *StubEngine {
	if config == nil {
		config = DefaultStubEngineConfig()
	}
	return &StubEngine{config: config}
}

// Translate answers a single-language job.
func (e *StubEngine) Translate(job Job) Result {
	model := job.ModelHint
	if model == "" {
		model = "stub-default"
	}
	return Result{
		JobID:              job.JobID,
		TranslatedText:     e.lookup(job.Text, job.TargetLang),
		DetectedSourceLang: e.detected(job.SourceLang),
		Meta: ResultMeta{
			Confidence: e.config.Confidence,
			FromCache:  false,
			ModelUsed:  model,
		},
	}
}

// TranslateBatch answers a batch job with one translation per requested
// target language.
func (e *StubEngine) TranslateBatch(job BatchJob) BatchResult {
	result := BatchResult{
		JobID:              job.JobID,
		DetectedSourceLang: e.detected(job.SourceLang),
		Translations:       make([]Translation, 0, len(job.TargetLangs)),
	}
	for _, lang := range job.TargetLangs {
		result.Translations = append(result.Translations, Translation{
			TargetLang:     lang,
			TranslatedText: e.lookup(job.Text, lang),
			Confidence:     e.config.Confidence,
			FromCache:      false,
		})
	}
	return result
}

func (e *StubEngine) detected(sourceLang string) string {
	if sourceLang != "" {
		return sourceLang
	}
	return e.config.DetectedLang
}

func (e *StubEngine) lookup(text, targetLang string) string {
	if langDict, ok := e.config.Dictionary[targetLang]; ok {
		if translated, ok := langDict[text]; ok {
			return translated
		}
	}
	return "[" + strings.ToUpper(targetLang) + "] " + text
}
