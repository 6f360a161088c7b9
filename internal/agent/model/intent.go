package model

import "strings"

// Intent is the closed set of things a user can ask for in one turn.
type Intent string

const (
	IntentGreeting               Intent = "GREETING"
	IntentGeneralChat            Intent = "GENERAL_CHAT"
	IntentSymptomQuery           Intent = "SYMPTOM_QUERY"
	IntentMedicalInformation     Intent = "MEDICAL_INFORMATION"
	IntentMedicineRecommendation Intent = "MEDICINE_RECOMMENDATION"
	IntentMedicineOrder          Intent = "MEDICINE_ORDER"
	IntentFollowUp               Intent = "FOLLOW_UP"
	IntentShowCatalog            Intent = "SHOW_CATALOG"
	IntentOrderHistory           Intent = "ORDER_HISTORY"
	IntentRefillReminders        Intent = "REFILL_REMINDERS"
	IntentShowProfile            Intent = "SHOW_PROFILE"
	IntentUploadPrescription     Intent = "UPLOAD_PRESCRIPTION"
)

// AllIntents lists the vocabulary in prompt order.
var AllIntents = []Intent{
	IntentGreeting,
	IntentGeneralChat,
	IntentSymptomQuery,
	IntentMedicalInformation,
	IntentMedicineRecommendation,
	IntentMedicineOrder,
	IntentFollowUp,
	IntentShowCatalog,
	IntentOrderHistory,
	IntentRefillReminders,
	IntentShowProfile,
	IntentUploadPrescription,
}

// ParseIntent validates s against the closed vocabulary. Case and
// surrounding punctuation are ignored.
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToUpper(strings.Trim(strings.TrimSpace(s), "\"'`.,"))
	s = strings.ReplaceAll(s, " ", "_")
	for _, it := range AllIntents {
		if string(it) == s {
			return it, true
		}
	}
	return "", false
}

func (i Intent) String() string {
	return string(i)
}
