package prompts

import (
	"context"
	_ "embed"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

var (
	//go:embed template/intent_prompt.txt
	intentTemplate string
	//go:embed template/confirmation_prompt.txt
	confirmationTemplate string
	//go:embed template/order_prompt.txt
	orderTemplate string
	//go:embed template/advice_prompt.txt
	adviceTemplate string
	//go:embed template/chat_prompt.txt
	chatTemplate string
)

// render formats a single-message Go template through the eino prompt
// component so prompt callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{Name: name, Type: "ChatTemplate", Component: components.ComponentOfPrompt})
	t := prompt.FromMessages(schema.GoTemplate, schema.UserMessage(tpl))
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}

func RenderIntent(ctx context.Context, pharmacy, language, history, utterance string) (string, error) {
	return render(ctx, "intent", intentTemplate, map[string]any{
		"PharmacyName": pharmacy,
		"Language":     language,
		"History":      orNone(history),
		"Utterance":    utterance,
	})
}

func RenderConfirmation(ctx context.Context, product string, quantity int, unitPrice float64, utterance string) (string, error) {
	return render(ctx, "confirmation", confirmationTemplate, map[string]any{
		"ProductName": product,
		"Quantity":    quantity,
		"UnitPrice":   fmt.Sprintf("%.2f", unitPrice),
		"Utterance":   utterance,
	})
}

func RenderOrderExtraction(ctx context.Context, utterance string) (string, error) {
	return render(ctx, "order", orderTemplate, map[string]any{"Utterance": utterance})
}

func RenderAdvice(ctx context.Context, language, utterance string) (string, error) {
	return render(ctx, "advice", adviceTemplate, map[string]any{
		"Language":  language,
		"Utterance": utterance,
	})
}

func RenderChat(ctx context.Context, pharmacy, language, history, utterance string) (string, error) {
	return render(ctx, "chat", chatTemplate, map[string]any{
		"PharmacyName": pharmacy,
		"Language":     language,
		"History":      orNone(history),
		"Utterance":    utterance,
	})
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
