package advice

import (
	"context"
	"sort"
	"strings"

	"github.com/sarthi-rx/server/internal/agent/model"
)

// expansions widens a symptom into catalog vocabulary.
var expansions = map[string][]string{
	"fever":        {"fever", "paracetamol", "temperature"},
	"cough":        {"cough", "syrup", "throat"},
	"cold":         {"cold", "flu", "runny", "vitamin c", "zinc"},
	"headache":     {"headache", "pain relief", "paracetamol"},
	"stomach pain": {"stomach", "acidity", "indigestion", "antacid"},
	"acidity":      {"acidity", "heartburn", "antacid"},
	"vomiting":     {"vomiting", "dehydration", "rehydration"},
	"diarrhea":     {"diarrhea", "rehydration", "loperamide"},
	"allergy":      {"allergy", "antihistamine", "sneezing", "itching"},
	"tired":        {"energy", "fatigue", "multivitamin", "vitamin"},
	"weak":         {"energy", "multivitamin", "vitamin", "wellness"},
	"body ache":    {"body ache", "muscle pain", "pain relief"},
	"joint pain":   {"joint", "sprain", "muscle pain"},
	"sore throat":  {"throat", "cough"},
	"runny nose":   {"runny nose", "allergy", "cold"},
	"nausea":       {"nausea", "indigestion", "vomiting"},
	"dizziness":    {"dehydration", "rehydration"},
}

// Recommender ranks catalog products against symptoms. Prescription-only
// products are never recommended.
type Recommender struct {
	catalog model.CatalogReader
	limit   int
}

func NewRecommender(catalog model.CatalogReader, limit int) *Recommender {
	if limit <= 0 {
		limit = 3
	}
	return &Recommender{catalog: catalog, limit: limit}
}

func (r *Recommender) Recommend(ctx context.Context, symptoms []string) ([]model.ProductRef, error) {
	keywords := keywordsFor(symptoms)
	if len(keywords) == 0 {
		return nil, nil
	}
	products, err := r.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		p     model.ProductRef
		score int
	}
	var hits []scored
	for _, p := range products {
		if p.PrescriptionRequired || p.Stock <= 0 {
			continue
		}
		text := strings.ToLower(p.Name + " " + p.Description)
		score := 0
		for _, k := range keywords {
			if strings.Contains(text, k) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{p, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]model.ProductRef, 0, r.limit)
	for i := 0; i < len(hits) && i < r.limit; i++ {
		out = append(out, hits[i].p)
	}
	return out, nil
}

func keywordsFor(symptoms []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if len(k) > 2 && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, s := range symptoms {
		add(s)
		for _, e := range expansions[strings.ToLower(s)] {
			add(e)
		}
	}
	return out
}
