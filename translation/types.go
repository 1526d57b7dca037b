// Package translation contains the domain types for translation jobs and
// results, plus the pure language-selection logic used during fan-out.
package translation

import (
	"errors"
	"fmt"
)

// Job is a single-language translation request.
type Job struct {
	// JobID is the caller-generated correlation identifier. It must be
	// globally unique for the lifetime of the request.
	JobID string `json:"jobId"`
	// Text is the content to translate.
	Text string `json:"text"`
	// TargetLang is the language to translate into (ISO 639-1 code).
	TargetLang string `json:"targetLanguage"`
	// ConversationID identifies the conversation the message belongs to.
	ConversationID string `json:"conversationId"`
	// SourceLang is the source language; empty means auto-detect.
	SourceLang string `json:"sourceLanguage"`
	// ModelHint selects a specific engine model; empty means default.
	ModelHint string `json:"modelHint"`
	// SkipCache bypasses the engine's translation cache.
	SkipCache bool `json:"skipCache"`
}

// BatchJob is a translation request for one text into several languages.
type BatchJob struct {
	JobID          string   `json:"jobId"`
	Text           string   `json:"text"`
	TargetLangs    []string `json:"targetLanguages"`
	ConversationID string   `json:"conversationId"`
	SourceLang     string   `json:"sourceLanguage"`
}

// Validate checks the batch-job invariants: at least one target language
// and no duplicates.
func (j BatchJob) Validate() error {
	if j.JobID == "" {
		return errors.New("batch job missing jobId")
	}
	if len(j.TargetLangs) == 0 {
		return errors.New("batch job has no target languages")
	}
	seen := make(map[string]struct{}, len(j.TargetLangs))
	for _, lang := range j.TargetLangs {
		if lang == "" {
			return errors.New("batch job contains an empty target language")
		}
		if _, dup := seen[lang]; dup {
			return fmt.Errorf("batch job contains duplicate target language %q", lang)
		}
		seen[lang] = struct{}{}
	}
	return nil
}

// ResultMeta carries per-translation engine metadata.
type ResultMeta struct {
	// Confidence is the engine's confidence score (0.0 - 1.0).
	Confidence float64 `json:"confidenceScore"`
	// FromCache reports whether the engine served a cached translation.
	FromCache bool `json:"fromCache"`
	// ModelUsed names the model that produced the translation.
	ModelUsed string `json:"modelUsed"`
}

// Result is the engine's answer to a single-language Job.
type Result struct {
	JobID              string     `json:"jobId"`
	TranslatedText     string     `json:"translatedText"`
	DetectedSourceLang string     `json:"detectedSourceLanguage"`
	Meta               ResultMeta `json:"metadata"`
}

// Translation is one per-language entry of a BatchResult.
type Translation struct {
	TargetLang     string  `json:"targetLanguage"`
	TranslatedText string  `json:"translatedText"`
	Confidence     float64 `json:"confidenceScore"`
	FromCache      bool    `json:"fromCache"`
}

// BatchResult is the engine's answer to a BatchJob. On success the set of
// TargetLang values matches the requested set; a missing language is a
// partial result the caller decides how to handle.
type BatchResult struct {
	JobID              string        `json:"jobId"`
	DetectedSourceLang string        `json:"detectedSourceLanguage"`
	Translations       []Translation `json:"translations"`
}

// ByTargetLang indexes the batch translations by target language.
func (r BatchResult) ByTargetLang() map[string]Translation {
	idx := make(map[string]Translation, len(r.Translations))
	for _, t := range r.Translations {
		idx[t.TargetLang] = t
	}
	return idx
}

// LanguagePreference is a participant's stored translation preference.
//
// The three TranslateTo* flags are not mutually exclusive in stored data;
// ResolveTargets applies a fixed precedence (system > regional > custom)
// rather than rejecting records with several flags set.
type LanguagePreference struct {
	SystemLang          string `json:"systemLanguage"`
	RegionalLang        string `json:"regionalLanguage"`
	CustomDestLang      string `json:"customDestinationLanguage,omitempty"`
	AutoTranslate       bool   `json:"autoTranslateEnabled"`
	TranslateToSystem   bool   `json:"translateToSystemLanguage"`
	TranslateToRegional bool   `json:"translateToRegionalLanguage"`
	UseCustomDest       bool   `json:"useCustomDestination"`
}
