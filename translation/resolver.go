package translation

// ResolveTargets computes the ordered list of distinct target languages a
// participant must receive for a message written in sourceLang.
//
// The result is empty when auto-translate is disabled. Otherwise each
// enabled channel contributes at most one language, evaluated in fixed
// precedence order: system, then regional, then custom destination. A
// candidate equal to the source language or to an already-selected
// language is skipped, so the result never contains duplicates and never
// contains sourceLang itself. Length is always 0 to 3.
func ResolveTargets(pref LanguagePreference, sourceLang string) []string {
	if !pref.AutoTranslate {
		return nil
	}

	var targets []string
	add := func(lang string) {
		if lang == "" || lang == sourceLang {
			return
		}
		for _, t := range targets {
			if t == lang {
				return
			}
		}
		targets = append(targets, lang)
	}

	if pref.TranslateToSystem {
		add(pref.SystemLang)
	}
	if pref.TranslateToRegional {
		add(pref.RegionalLang)
	}
	if pref.UseCustomDest {
		add(pref.CustomDestLang)
	}
	return targets
}
