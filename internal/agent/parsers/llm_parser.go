package parsers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 32 * 1024
	maxListItems  = 20
	maxItemLen    = 200
	maxErrSnippet = 200
)

var errNoObject = fmt.Errorf("no json object in reply")

// extractObject returns the first balanced {...} block, skipping braces that
// appear inside JSON strings. Markdown fences around the object are ignored.
func extractObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", errNoObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced json object: %s", safeSnippet(content[start:]))
}

func decode(component, content string, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", component).Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("%s parser panic", component), http.StatusInternalServerError, errx.SystemErrorMessage)
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", component).
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("%s: invalid utf8", component)
	}
	obj, err := extractObject(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("%s: %w", component, err)
	}
	return nil
}

// ParseIntent accepts {"intent": "..."} or, failing that, a reply that names
// exactly one intent. Anything outside the closed vocabulary is rejected.
func ParseIntent(content string) (model.Intent, error) {
	var reply struct {
		Intent string `json:"intent"`
	}
	if err := decode("intent_parser", content, &reply); err == nil {
		if it, ok := model.ParseIntent(reply.Intent); ok {
			return it, nil
		}
		return "", fmt.Errorf("unknown intent %q", safeSnippet(reply.Intent))
	}

	upper := strings.ToUpper(content)
	var found []model.Intent
	for _, it := range model.AllIntents {
		if containsWord(upper, string(it)) {
			found = append(found, it)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return "", fmt.Errorf("unparseable intent reply: %s", safeSnippet(content))
}

// ParseConfirmation maps {"confirmed": true|false|null} to a decision. A
// missing or null value is unclear.
func ParseConfirmation(content string) (model.ConfirmDecision, error) {
	var reply struct {
		Confirmed *bool  `json:"confirmed"`
		Decision  string `json:"decision"`
	}
	if err := decode("confirmation_parser", content, &reply); err != nil {
		return "", err
	}
	if reply.Confirmed != nil {
		if *reply.Confirmed {
			return model.ConfirmYes, nil
		}
		return model.ConfirmNo, nil
	}
	switch strings.ToLower(strings.TrimSpace(reply.Decision)) {
	case "yes", "confirmed", "confirm":
		return model.ConfirmYes, nil
	case "no", "declined", "cancel":
		return model.ConfirmNo, nil
	}
	return model.ConfirmUnclear, nil
}

// OrderExtraction is the product phrase and quantity pulled from an utterance.
type OrderExtraction struct {
	ProductName string
	Quantity    int
}

func ParseOrderExtraction(content string) (*OrderExtraction, error) {
	var reply struct {
		ProductName string          `json:"product_name"`
		Quantity    json.RawMessage `json:"quantity"`
	}
	if err := decode("order_parser", content, &reply); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(reply.ProductName)
	if name == "" || strings.EqualFold(name, "null") || strings.EqualFold(name, "none") {
		return nil, fmt.Errorf("order_parser: empty product name")
	}
	if len(name) > maxItemLen {
		return nil, fmt.Errorf("order_parser: product name too long")
	}
	return &OrderExtraction{ProductName: name, Quantity: parseQuantity(reply.Quantity)}, nil
}

// parseQuantity accepts 2, 2.0 or "2". A missing or non-numeric value
// yields 1; numbers pass through unchecked for the caller to judge.
func parseQuantity(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), "\"")
	if s == "" || s == "null" {
		return 1
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return int(math.Max(math.Min(f, math.MaxInt32), math.MinInt32))
}

// AdviceReply is the structured symptom analysis.
type AdviceReply struct {
	Symptoms           []string `json:"symptoms"`
	PossibleConditions []string `json:"possible_conditions"`
	Advice             string   `json:"advice"`
}

func ParseAdvice(content string) (*AdviceReply, error) {
	var reply AdviceReply
	if err := decode("advice_parser", content, &reply); err != nil {
		return nil, err
	}
	reply.Symptoms = cleanList(reply.Symptoms)
	reply.PossibleConditions = cleanList(reply.PossibleConditions)
	reply.Advice = strings.TrimSpace(reply.Advice)
	return &reply, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || len(s) > maxItemLen || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}

// --- helpers ---

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		end := i + len(word)
		before := i == 0 || !isWordByte(haystack[i-1])
		after := end == len(haystack) || !isWordByte(haystack[end])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
