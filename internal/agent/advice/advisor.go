package advice

import (
	"context"
	"errors"
	"strings"

	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/parsers"
	"github.com/sarthi-rx/server/internal/agent/prompts"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

type symptomEntry struct {
	symptom    string
	aliases    []string
	conditions []string
}

// symptomTable maps symptoms to conditions they are commonly associated with.
var symptomTable = []symptomEntry{
	{"fever", []string{"fever", "temperature", "बुखार", "ताप"}, []string{"common flu", "viral infection"}},
	{"cough", []string{"cough", "खांसी", "खोकला"}, []string{"common cold", "respiratory infection", "throat irritation"}},
	{"cold", []string{"cold", "जुकाम", "सर्दी"}, []string{"common cold", "viral upper respiratory infection"}},
	{"headache", []string{"headache", "head ache", "सिरदर्द", "डोकेदुखी"}, []string{"tension", "stress", "dehydration"}},
	{"stomach pain", []string{"stomach pain", "stomach ache", "पेट दर्द", "पोटदुखी"}, []string{"indigestion", "gas", "food intolerance"}},
	{"acidity", []string{"acidity", "heartburn", "indigestion"}, []string{"acid reflux", "indigestion"}},
	{"vomiting", []string{"vomiting", "उल्टी"}, []string{"food poisoning", "stomach flu", "motion sickness"}},
	{"diarrhea", []string{"diarrhea", "diarrhoea", "loose motion", "दस्त", "जुलाब"}, []string{"food intolerance", "stomach infection"}},
	{"allergy", []string{"allergy", "sneezing", "itching", "एलर्जी"}, []string{"allergic reaction", "seasonal allergies"}},
	{"tired", []string{"tired", "fatigue", "थकान", "थकवा"}, []string{"general fatigue", "lack of sleep", "stress"}},
	{"weak", []string{"weak", "weakness", "कमजोरी"}, []string{"general weakness", "nutritional deficiency"}},
	{"body ache", []string{"body ache", "body pain", "muscle pain", "बदन दर्द"}, []string{"muscle strain", "flu symptoms", "overexertion"}},
	{"joint pain", []string{"joint pain", "back pain", "sprain"}, []string{"muscle strain", "joint inflammation"}},
	{"sore throat", []string{"sore throat", "throat pain", "गले में खराश"}, []string{"throat infection", "common cold"}},
	{"runny nose", []string{"runny nose", "blocked nose", "नाक बहना"}, []string{"common cold", "allergic rhinitis", "sinusitis"}},
	{"nausea", []string{"nausea", "जी मिचलाना"}, []string{"indigestion", "food poisoning", "motion sickness"}},
	{"dizziness", []string{"dizziness", "dizzy", "चक्कर"}, []string{"low blood sugar", "dehydration", "inner ear issue"}},
	{"chest pain", []string{"chest pain", "सीने में दर्द", "छाती दुखणे"}, []string{"heartburn", "muscle strain", "a heart condition"}},
	{"breathing difficulty", []string{"breathing difficulty", "difficulty breathing", "shortness of breath", "can't breathe", "सांस लेने में तकलीफ"}, []string{"asthma", "allergic reaction"}},
}

// redFlags are symptoms that always route to urgent care instead of
// recommendations.
var redFlags = map[string]bool{
	"chest pain":           true,
	"breathing difficulty": true,
}

const defaultAdvice = "Please consult a doctor if symptoms persist or get worse. Rest and stay hydrated."

type Advisor struct {
	llm model.TextCompleter
}

func NewAdvisor(llm model.TextCompleter) *Advisor {
	return &Advisor{llm: llm}
}

// Analyze never fails. Red flags are always detected by keyword, even when
// the language model missed them.
func (a *Advisor) Analyze(ctx context.Context, utterance, lang string) (model.AdviceOutput, model.RouteSource) {
	rules := AnalyzeRules(utterance)

	out, err := a.analyzeLLM(ctx, utterance, lang)
	if err != nil {
		if !errors.Is(err, model.ErrUnavailable) {
			logx.Warn().Err(err).Msg("discarding language model symptom analysis")
		}
		return rules, model.RouteRules
	}
	if len(out.Symptoms) == 0 && len(rules.Symptoms) > 0 {
		return rules, model.RouteRules
	}
	for _, s := range rules.Symptoms {
		if redFlags[s] {
			out.Urgent = true
			out.Symptoms = appendUnique(out.Symptoms, s)
		}
	}
	return out, model.RouteLLM
}

func (a *Advisor) analyzeLLM(ctx context.Context, utterance, lang string) (model.AdviceOutput, error) {
	if a.llm == nil {
		return model.AdviceOutput{}, model.ErrUnavailable
	}
	p, err := prompts.RenderAdvice(ctx, lang, utterance)
	if err != nil {
		return model.AdviceOutput{}, err
	}
	reply, err := a.llm.Complete(ctx, p)
	if err != nil {
		return model.AdviceOutput{}, err
	}
	parsed, err := parsers.ParseAdvice(reply)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("advice").Inc()
		return model.AdviceOutput{}, err
	}
	out := model.AdviceOutput{
		Symptoms:   parsed.Symptoms,
		Conditions: limit(parsed.PossibleConditions, 3),
		Advice:     parsed.Advice,
	}
	if out.Advice == "" || diagnoses(out.Advice) {
		out.Advice = defaultAdvice
	}
	for _, s := range out.Symptoms {
		if redFlags[s] {
			out.Urgent = true
		}
	}
	return out, nil
}

// AnalyzeRules matches the symptom table by keyword.
func AnalyzeRules(utterance string) model.AdviceOutput {
	norm := intent.Normalize(utterance)
	out := model.AdviceOutput{Advice: defaultAdvice}
	for _, e := range symptomTable {
		if intent.HasAny(norm, e.aliases) == "" {
			continue
		}
		out.Symptoms = append(out.Symptoms, e.symptom)
		for _, c := range e.conditions {
			out.Conditions = appendUnique(out.Conditions, c)
		}
		if redFlags[e.symptom] {
			out.Urgent = true
		}
	}
	out.Conditions = limit(out.Conditions, 3)
	return out
}

// UrgentSymptoms lists the red-flag symptoms in out.
func UrgentSymptoms(out model.AdviceOutput) []string {
	var urgent []string
	for _, s := range out.Symptoms {
		if redFlags[s] {
			urgent = append(urgent, s)
		}
	}
	return urgent
}

// diagnoses catches replies that assert a diagnosis outright.
func diagnoses(advice string) bool {
	lower := strings.ToLower(advice)
	for _, p := range []string{"you have ", "you are suffering from", "diagnosis is", "you definitely"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func limit(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
