package translation

import "testing"

func TestStubEngineTranslate(t *testing.T) {
	engine := NewStubEngine(nil)

	t.Run("dictionary hit", func(t *testing.T) {
		result := engine.Translate(Job{JobID: "job-1", Text: "Hello", TargetLang: "es", SourceLang: "en"})
		if result.TranslatedText != "Hola" {
			t.Errorf("expected dictionary translation, got %q", result.TranslatedText)
		}
		if result.JobID != "job-1" {
			t.Errorf("job id not echoed: %q", result.JobID)
		}
		if result.DetectedSourceLang != "en" {
			t.Errorf("expected declared source language, got %q", result.DetectedSourceLang)
		}
	})

	t.Run("dictionary miss falls back to prefixed text", func(t *testing.T) {
		result := engine.Translate(Job{JobID: "job-2", Text: "untranslated", TargetLang: "es"})
		if result.TranslatedText != "[ES] untranslated" {
			t.Errorf("unexpected fallback: %q", result.TranslatedText)
		}
	})

	t.Run("empty source language reports detected default", func(t *testing.T) {
		result := engine.Translate(Job{JobID: "job-3", Text: "Hello", TargetLang: "fr"})
		if result.DetectedSourceLang != "en" {
			t.Errorf("expected auto-detected source, got %q", result.DetectedSourceLang)
		}
	})

	t.Run("model hint is echoed in metadata", func(t *testing.T) {
		result := engine.Translate(Job{JobID: "job-4", Text: "Hello", TargetLang: "es", ModelHint: "premium"})
		if result.Meta.ModelUsed != "premium" {
			t.Errorf("expected model hint, got %q", result.Meta.ModelUsed)
		}
	})
}

func TestStubEngineTranslateBatch(t *testing.T) {
	engine := NewStubEngine(nil)

	job := BatchJob{
		JobID:       "batch-1",
		Text:        "Hello",
		TargetLangs: []string{"es", "fr", "de"},
		SourceLang:  "en",
	}
	result := engine.TranslateBatch(job)

	if result.JobID != "batch-1" {
		t.Errorf("job id not echoed: %q", result.JobID)
	}
	if len(result.Translations) != len(job.TargetLangs) {
		t.Fatalf("expected %d translations, got %d", len(job.TargetLangs), len(result.Translations))
	}

	byLang := result.ByTargetLang()
	for _, lang := range job.TargetLangs {
		if _, ok := byLang[lang]; !ok {
			t.Errorf("batch result missing language %q", lang)
		}
	}
	if byLang["es"].TranslatedText != "Hola" {
		t.Errorf("expected dictionary translation for es, got %q", byLang["es"].TranslatedText)
	}
	if byLang["de"].TranslatedText != "[DE] Hello" {
		t.Errorf("expected fallback for de, got %q", byLang["de"].TranslatedText)
	}
}

func TestBatchJobValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     BatchJob
		wantErr bool
	}{
		{"valid", BatchJob{JobID: "j", TargetLangs: []string{"es", "fr"}}, false},
		{"missing job id", BatchJob{TargetLangs: []string{"es"}}, true},
		{"no targets", BatchJob{JobID: "j"}, true},
		{"duplicate targets", BatchJob{JobID: "j", TargetLangs: []string{"es", "es"}}, true},
		{"empty target", BatchJob{JobID: "j", TargetLangs: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
