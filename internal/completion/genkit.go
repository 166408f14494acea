package completion

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitClient is the production Client backed by a Genkit model. The
// registered model plugin (Gemini by default) performs the actual API call;
// its response surfaces as a single-choice Response.
type GenkitClient struct {
	g *genkit.Genkit
}

// NewGenkitClient wraps an initialized Genkit instance.
func NewGenkitClient(g *genkit.Genkit) *GenkitClient {
	return &GenkitClient{g: g}
}

// Complete sends the messages to the model and adapts the reply.
// Genkit models return one candidate, exposed here as a choice with
// conversational content.
func (c *GenkitClient) Complete(ctx context.Context, model string, messages []Message, temperature float32) (*Response, error) {
	aiMessages := make([]*ai.Message, 0, len(messages))
	for _, msg := range messages {
		aiMessages = append(aiMessages, &ai.Message{
			Role:    toGenkitRole(msg.Role),
			Content: []*ai.Part{ai.NewTextPart(msg.Content)},
		})
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(model),
		ai.WithMessages(aiMessages...),
		ai.WithConfig(map[string]any{"temperature": temperature}),
	)
	if err != nil {
		return nil, err
	}

	return &Response{
		Choices: []Choice{
			{Message: ChatMessage{Content: resp.Text()}},
		},
	}, nil
}

func toGenkitRole(role string) ai.Role {
	switch role {
	case RoleSystem:
		return ai.RoleSystem
	case RoleAssistant:
		return ai.RoleModel
	default:
		return ai.RoleUser
	}
}
