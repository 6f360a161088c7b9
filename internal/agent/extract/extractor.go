package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/parsers"
	"github.com/sarthi-rx/server/internal/agent/prompts"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"zero": 0, "a couple": 2, "couple": 2, "dozen": 12,
	"एक": 1, "दो": 2, "तीन": 3, "चार": 4, "पांच": 5, "दोन": 2,
}

var fillers = map[string]bool{
	"i": true, "i'd": true, "i'm": true, "want": true, "wanna": true, "to": true, "buy": true,
	"order": true, "please": true, "need": true, "get": true, "me": true, "some": true,
	"of": true, "a": true, "an": true, "the": true, "can": true, "could": true, "have": true,
	"give": true, "purchase": true, "place": true, "for": true, "my": true, "would": true,
	"like": true, "you": true, "add": true, "now": true, "and": true, "also": true,
	"units": true, "unit": true, "tablets": true, "tablet": true, "strips": true, "strip": true,
	"packs": true, "pack": true, "packets": true, "packet": true, "bottles": true, "bottle": true,
	"pcs": true, "x": true, "tell": true, "about": true, "what": true, "is": true, "price": true,
	"how": true, "much": true, "do": true, "does": true, "in": true, "stock": true, "available": true,
	"it": true, "that": true, "this": true, "them": true, "info": true, "information": true, "details": true, "there": true, "any": true, "cost": true,
	"ऑर्डर": true, "चाहिए": true, "मुझे": true, "हवे": true, "मला": true, "करो": true, "करा": true,
}

var multiplier = regexp.MustCompile(`^(?:(\d+)x|x(\d+))$`)

var errImplausibleQuantity = errors.New("implausible quantity")

// Extraction is the product phrase and quantity of one order request.
// Quantity below 1 means the user asked for an unusable amount.
type Extraction struct {
	Phrase   string
	Quantity int
	Source   model.RouteSource

	// Strength is a bare number above the order limit, as in "paracetamol
	// 500". It may be a dose rather than a count; StrengthQuantity is the
	// quantity to use if the catalog says so.
	Strength         int
	StrengthQuantity int
}

type Extractor struct {
	llm         model.TextCompleter
	maxQuantity int
}

func NewExtractor(llm model.TextCompleter, maxQuantity int) *Extractor {
	if maxQuantity <= 0 {
		maxQuantity = 50
	}
	return &Extractor{llm: llm, maxQuantity: maxQuantity}
}

// Extract never fails. An empty Phrase means no product was named.
func (e *Extractor) Extract(ctx context.Context, utterance string) Extraction {
	if ex, err := e.extractLLM(ctx, utterance); err == nil {
		return ex
	} else if !errors.Is(err, model.ErrUnavailable) {
		logx.Warn().Err(err).Msg("discarding language model order extraction")
	}
	ex := e.Rules(utterance)
	ex.Source = model.RouteRules
	return ex
}

func (e *Extractor) extractLLM(ctx context.Context, utterance string) (Extraction, error) {
	if e.llm == nil {
		return Extraction{}, model.ErrUnavailable
	}
	p, err := prompts.RenderOrderExtraction(ctx, utterance)
	if err != nil {
		return Extraction{}, err
	}
	reply, err := e.llm.Complete(ctx, p)
	if err != nil {
		return Extraction{}, err
	}
	parsed, err := parsers.ParseOrderExtraction(reply)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("order").Inc()
		return Extraction{}, err
	}
	if q := parsed.Quantity; q < 1 || q > e.maxQuantity {
		return Extraction{}, fmt.Errorf("%w: %d", errImplausibleQuantity, q)
	}
	return Extraction{Phrase: parsed.ProductName, Quantity: parsed.Quantity, Source: model.RouteLLM}, nil
}

// Rules pulls the quantity from number words, "3x" multipliers or
// standalone digits and keeps the remaining non-filler words as the product
// phrase. Digits override number words. A digit followed by a unit is a
// strength and stays in the phrase. No quantity at all means 1.
func (e *Extractor) Rules(utterance string) Extraction {
	tokens := strings.Fields(intent.Normalize(utterance))
	consumed := make([]bool, len(tokens))
	qty, found := 0, false

	for i, t := range tokens {
		if found {
			break
		}
		if i+1 < len(tokens) {
			if n, ok := numberWords[t+" "+tokens[i+1]]; ok {
				qty, found = n, true
				consumed[i], consumed[i+1] = true, true
				continue
			}
		}
		if n, ok := numberWords[t]; ok {
			qty, found = n, true
			consumed[i] = true
		}
	}
	words := qty

	ex := Extraction{}
	for i, t := range tokens {
		n, ok := digits(t)
		if !ok {
			continue
		}
		if i+1 < len(tokens) && isUnit(tokens[i+1]) {
			continue
		}
		qty, found = n, true
		consumed[i] = true
		if n > e.maxQuantity {
			ex.Strength = n
			ex.StrengthQuantity = max(words, 1)
		}
		break
	}
	if !found {
		qty = 1
	}

	var phrase []string
	for i, t := range tokens {
		if consumed[i] || fillers[t] {
			continue
		}
		phrase = append(phrase, t)
	}
	ex.Phrase = strings.Join(phrase, " ")
	ex.Quantity = qty
	return ex
}

// digits reads "3", "3x" and "x3". Negative numbers come back as is.
func digits(t string) (int, bool) {
	if m := multiplier.FindStringSubmatch(t); m != nil {
		t = m[1] + m[2]
	}
	n, err := strconv.Atoi(t)
	return n, err == nil
}

func isUnit(t string) bool {
	switch t {
	case "mg", "ml", "mcg", "g", "iu":
		return true
	}
	return false
}

// NamesStrength reports whether a catalog name carries n as a dose, as
// "Paracetamol 500mg" does for 500.
func NamesStrength(name string, n int) bool {
	want := strconv.Itoa(n)
	for _, t := range strings.Fields(intent.Normalize(name)) {
		if rest, ok := strings.CutPrefix(t, want); ok && (rest == "" || isUnit(rest)) {
			return true
		}
	}
	return false
}

var ordinals = []struct {
	words []string
	index int
}{
	{[]string{"first", "1st", "first one", "पहला", "पहली", "पहिले"}, 0},
	{[]string{"second", "2nd", "second one", "दूसरा", "दूसरी", "दुसरे"}, 1},
	{[]string{"third", "3rd", "third one", "तीसरा", "तीसरी", "तिसरे"}, 2},
}

// PickOrdinal maps "the second one" style references onto a list of n
// items. Bare references ("that one", "it") pick the first item.
func PickOrdinal(utterance string, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	norm := intent.Normalize(utterance)
	for _, o := range ordinals {
		if intent.HasAny(norm, o.words) != "" {
			if o.index < n {
				return o.index, true
			}
			return 0, false
		}
	}
	if intent.HasAny(norm, []string{"last", "last one"}) != "" {
		return n - 1, true
	}
	if intent.HasAny(norm, []string{"that one", "this one", "that", "it", "the same", "same one", "वही", "ते"}) != "" {
		return 0, true
	}
	return 0, false
}
