package registry

import "encoding/json"

// chatMessage mirrors the OpenAI-compatible chat payload shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// defaultAllowedChatModels lists the models the OpenAI-compatible handler
// accepts. gpt-4o is the baseline; additional model names can be passed at
// construction time via NewOpenAIValidator.
var defaultAllowedChatModels = map[string]struct{}{
	"gpt-4o": {},
}

// NewOpenAIValidator builds the chat-completions payload validator: the body
// must parse as JSON matching {model?, messages:[{role, content}, ...]}, and
// the model (when present) must be one of the allowed models.
func NewOpenAIValidator(extraModels ...string) Validator {
	allowed := make(map[string]struct{}, len(defaultAllowedChatModels)+len(extraModels))
	for m := range defaultAllowedChatModels {
		allowed[m] = struct{}{}
	}
	for _, m := range extraModels {
		allowed[m] = struct{}{}
	}

	return func(_ string, body string) bool {
		var req chatCompletionRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return false
		}
		if len(req.Messages) == 0 {
			return false
		}
		for _, m := range req.Messages {
			if m.Role == "" {
				return false
			}
		}
		if req.Model == "" {
			return true
		}
		_, ok := allowed[req.Model]
		return ok
	}
}
