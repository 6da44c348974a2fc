package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// languageNames maps supported ISO 639-1 codes to the names used in the
// translation instruction. Codes outside this map make Translate an identity.
var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
}

// Translator renders text into a target language through the chat model.
type Translator struct {
	client        *Client
	defaultLocale string
}

func NewTranslator(client *Client, defaultLocale string) *Translator {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Translator{client: client, defaultLocale: defaultLocale}
}

func (t *Translator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" || targetLang == t.defaultLocale {
		return text, nil
	}
	name, ok := languageNames[targetLang]
	if !ok {
		return text, nil
	}

	instruction := fmt.Sprintf(
		"You are a professional translator. Translate the user's text into %s. "+
			"Preserve formatting, line breaks and any section headers. Output only the translation.", name)

	request := map[string]any{
		"model": t.client.chatModel,
		"messages": []domain.Message{
			{Role: domain.RoleSystem, Content: instruction},
			{Role: domain.RoleUser, Content: text},
		},
		"temperature": 0.0,
	}
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := t.client.call(ctx, "openai.translate", func(ctx context.Context) error {
		return t.client.postJSON(ctx, "/v1/chat/completions", request, &response, "translate")
	})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("translate: response has no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
