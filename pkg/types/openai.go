package types

// OpenAIRequest mimicking the OpenAI Chat Completion request
type OpenAIRequest struct {
	Messages  []OpenAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Model     string          `json:"model"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// OpenAIResponse mimicking the OpenAI Chat Completion response.
// Message and its Content are pointers so that a missing or null field can be
// told apart from an empty string.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int            `json:"index"`
	Message      *OpenAIReplyMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type OpenAIReplyMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// AssistantReply builds a reply message carrying content.
func AssistantReply(content string) *OpenAIReplyMessage {
	return &OpenAIReplyMessage{Role: RoleAssistant, Content: &content}
}

// FirstContent returns choices[0].message.content and whether it was present.
func (r *OpenAIResponse) FirstContent() (string, bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	msg := r.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", false
	}
	return *msg.Content, true
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
