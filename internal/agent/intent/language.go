package intent

import (
	"strings"
	"unicode"
)

var hindiMarkers = []string{
	"है", "हैं", "मैं", "मुझे", "आप", "क्या", "कैसे", "कहाँ", "कब", "क्यों",
	"बुखार", "दर्द", "सिर", "पेट", "दवा", "दवाई", "चाहिए", "डॉक्टर",
}

var marathiMarkers = []string{
	"आहे", "मी", "मला", "तुम्ही", "काय", "कसे", "कुठे", "केव्हा",
	"ताप", "दुखणे", "डोके", "पोट", "औषध", "हवे", "आजार",
}

// DetectLanguage returns "hi", "mr" or "en". Devanagari text is split by
// marker words; Hindi wins ties.
func DetectLanguage(text string) string {
	devanagari := false
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			devanagari = true
			break
		}
	}
	if !devanagari {
		return "en"
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r))
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	hi, mr := 0, 0
	for _, w := range hindiMarkers {
		if set[w] {
			hi++
		}
	}
	for _, w := range marathiMarkers {
		if set[w] {
			mr++
		}
	}
	if mr > hi {
		return "mr"
	}
	return "hi"
}

// NormalizeLanguage maps declared language names or codes to en, hi or mr.
// Unknown values return "".
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "eng", "english":
		return "en"
	case "hi", "hin", "hindi":
		return "hi"
	case "mr", "mar", "marathi":
		return "mr"
	}
	return ""
}
