package translation

import (
	"reflect"
	"testing"
)

func TestResolveTargets(t *testing.T) {
	tests := []struct {
		name       string
		pref       LanguagePreference
		sourceLang string
		want       []string
	}{
		{
			name: "auto translate disabled returns nothing",
			pref: LanguagePreference{
				SystemLang:          "en",
				RegionalLang:        "es",
				CustomDestLang:      "fr",
				AutoTranslate:       false,
				TranslateToSystem:   true,
				TranslateToRegional: true,
				UseCustomDest:       true,
			},
			sourceLang: "de",
			want:       nil,
		},
		{
			name: "system only",
			pref: LanguagePreference{
				SystemLang:        "en",
				AutoTranslate:     true,
				TranslateToSystem: true,
			},
			sourceLang: "es",
			want:       []string{"en"},
		},
		{
			name: "regional only",
			pref: LanguagePreference{
				SystemLang:          "en",
				RegionalLang:        "es",
				AutoTranslate:       true,
				TranslateToRegional: true,
			},
			sourceLang: "en",
			want:       []string{"es"},
		},
		{
			name: "custom only",
			pref: LanguagePreference{
				CustomDestLang: "pt",
				AutoTranslate:  true,
				UseCustomDest:  true,
			},
			sourceLang: "en",
			want:       []string{"pt"},
		},
		{
			name: "system target equal to source is excluded",
			pref: LanguagePreference{
				SystemLang:        "en",
				AutoTranslate:     true,
				TranslateToSystem: true,
			},
			sourceLang: "en",
			want:       nil,
		},
		{
			name: "all channels enabled preserve precedence order",
			pref: LanguagePreference{
				SystemLang:          "en",
				RegionalLang:        "es",
				CustomDestLang:      "fr",
				AutoTranslate:       true,
				TranslateToSystem:   true,
				TranslateToRegional: true,
				UseCustomDest:       true,
			},
			sourceLang: "de",
			want:       []string{"en", "es", "fr"},
		},
		{
			name: "duplicate candidates collapse to one",
			pref: LanguagePreference{
				SystemLang:          "en",
				RegionalLang:        "en",
				CustomDestLang:      "en",
				AutoTranslate:       true,
				TranslateToSystem:   true,
				TranslateToRegional: true,
				UseCustomDest:       true,
			},
			sourceLang: "fr",
			want:       []string{"en"},
		},
		{
			name: "empty custom destination is skipped",
			pref: LanguagePreference{
				SystemLang:        "en",
				CustomDestLang:    "",
				AutoTranslate:     true,
				TranslateToSystem: true,
				UseCustomDest:     true,
			},
			sourceLang: "es",
			want:       []string{"en"},
		},
		{
			name: "lower-priority channel survives when higher equals source",
			pref: LanguagePreference{
				SystemLang:          "en",
				RegionalLang:        "es",
				AutoTranslate:       true,
				TranslateToSystem:   true,
				TranslateToRegional: true,
			},
			sourceLang: "en",
			want:       []string{"es"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTargets(tt.pref, tt.sourceLang)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTargetsNeverReturnsSourceOrDuplicates(t *testing.T) {
	prefs := []LanguagePreference{
		{SystemLang: "en", RegionalLang: "es", CustomDestLang: "en", AutoTranslate: true, TranslateToSystem: true, TranslateToRegional: true, UseCustomDest: true},
		{SystemLang: "fr", RegionalLang: "fr", CustomDestLang: "fr", AutoTranslate: true, TranslateToSystem: true, TranslateToRegional: true, UseCustomDest: true},
		{SystemLang: "de", AutoTranslate: true, TranslateToSystem: true, UseCustomDest: true},
	}
	sources := []string{"en", "es", "fr", "de", ""}

	for _, pref := range prefs {
		for _, source := range sources {
			targets := ResolveTargets(pref, source)
			if len(targets) > 3 {
				t.Fatalf("got %d targets, precedence allows at most 3", len(targets))
			}
			seen := make(map[string]struct{})
			for _, lang := range targets {
				if lang == source {
					t.Errorf("ResolveTargets(%+v, %q) returned the source language", pref, source)
				}
				if _, dup := seen[lang]; dup {
					t.Errorf("ResolveTargets(%+v, %q) returned duplicate %q", pref, source, lang)
				}
				seen[lang] = struct{}{}
			}
		}
	}
}
