package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks returns every observer handler: stage timing for graph
// nodes plus prompt and chat model logging.
func NewAllCallbacks() []einocb.Handler {
	components := callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()

	return []einocb.Handler{newStageHandler(), components}
}
