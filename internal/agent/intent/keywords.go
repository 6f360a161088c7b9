package intent

import "github.com/sarthi-rx/server/internal/agent/model"

type override struct {
	phrase string
	intent model.Intent
}

// overrides always win over the language model.
var overrides = []override{
	{"prescription", model.IntentUploadPrescription},
	{"prescriptions", model.IntentUploadPrescription},
	{"refill", model.IntentRefillReminders},
	{"refills", model.IntentRefillReminders},
	{"reminder", model.IntentRefillReminders},
	{"reminders", model.IntentRefillReminders},
	{"order history", model.IntentOrderHistory},
	{"my orders", model.IntentOrderHistory},
	{"my profile", model.IntentShowProfile},
	{"show medicines", model.IntentShowCatalog},
	{"available medicines", model.IntentShowCatalog},
	{"list medicines", model.IntentShowCatalog},
	{"show catalog", model.IntentShowCatalog},
}

type ruleGroup struct {
	intent   model.Intent
	keywords []string
}

// ruleGroups is evaluated in order; the first hit wins.
var ruleGroups = []ruleGroup{
	{model.IntentUploadPrescription, []string{
		"upload prescription", "prescription upload", "upload rx", "prescribe",
		"prescription image", "doctor prescription", "attach prescription",
		"send prescription", "share prescription", "पर्ची",
	}},
	{model.IntentShowCatalog, []string{
		"show medicines", "list medicines", "available medicines", "what medicines",
		"browse medicines", "medicine catalog", "all medicines", "medicine list",
		"medicines available", "show available", "what do you have", "catalogue",
		"catalog", "medicine inventory",
	}},
	{model.IntentOrderHistory, []string{
		"order history", "my orders", "past orders", "previous orders", "order list",
		"my purchases", "order details", "order status", "ordered medicines",
		"what i ordered", "order records",
	}},
	{model.IntentRefillReminders, []string{
		"refill reminder", "refill alerts", "medicine reminder", "reminder", "refill",
		"when to refill", "next refill", "refill due", "renew medicine", "medicine renewal",
	}},
	{model.IntentShowProfile, []string{
		"my profile", "show profile", "my account", "my details", "profile",
		"account details", "my information", "my info", "personal details",
	}},
	{model.IntentGreeting, []string{
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		"namaste", "नमस्ते", "नमस्कार",
	}},
	{model.IntentGeneralChat, []string{
		"how are you", "thank", "thanks", "thank you", "help", "what can you do",
		"who are you", "धन्यवाद",
	}},
	{model.IntentMedicineRecommendation, []string{
		"recommend", "suggest", "what should i take", "what can i take",
		"which medicine", "medicine for", "something for",
	}},
	{model.IntentSymptomQuery, symptomWords},
	{model.IntentFollowUp, []string{
		"first one", "second one", "third one", "that one", "this one", "the same",
		"the first", "the second", "the third",
	}},
	{model.IntentMedicalInformation, []string{
		"tell me about", "what is", "side effects", "price of", "how much is",
		"how much does", "is there", "do you have", "in stock", "dosage", "used for",
	}},
	{model.IntentMedicineOrder, OrderWords},
}

var symptomWords = []string{
	"fever", "cough", "cold", "headache", "head ache", "stomach pain", "stomach ache",
	"vomiting", "diarrhea", "allergy", "tired", "weak", "weakness", "body ache",
	"sore throat", "runny nose", "nausea", "dizziness", "dizzy", "chest pain",
	"breathing difficulty", "pain", "sick", "i feel", "feeling", "symptom", "symptoms",
	"बुखार", "दर्द", "खांसी", "ताप", "दुखणे",
}

// OrderWords signal a purchase request.
var OrderWords = []string{
	"order", "buy", "purchase", "place order", "order now", "buy now", "can i get",
	"i want", "i need", "please order", "can i have", "give me", "get me", "add",
	"ऑर्डर", "खरीद", "चाहिए", "हवे",
}
