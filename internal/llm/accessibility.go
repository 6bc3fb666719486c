package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

const accessibilityPrompt = `Describe this sticker for a screen reader in one short sentence.
Stay under %d characters.
Focus on: main subject, emotion/action, distinctive shapes/colors.
IMPORTANT: If there is any text visible in the image, include it verbatim.
Output ONLY the description - no markdown, no quotes, no formatting.

Good examples:
Cat with huge eyes holding a coffee cup
Cartoon dog waving with text 'Hi!' above it`

var imageMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}

// GenerateAccessibilityText describes a sticker image and returns a single
// line of at most maxChars characters.
func (c *Client) GenerateAccessibilityText(ctx context.Context, imageData []byte, mimeType string, maxChars int) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("image data is empty")
	}
	if !isImageMimeType(mimeType) {
		return "", fmt.Errorf("invalid MIME type for image: %s", mimeType)
	}
	if maxChars <= 0 {
		return "", fmt.Errorf("character limit must be positive, got %d", maxChars)
	}

	message, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mimeType, base64.StdEncoding.EncodeToString(imageData)),
				anthropic.NewTextBlock(fmt.Sprintf(accessibilityPrompt, maxChars)),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate accessibility text: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	if message.Content[0].Type != "text" {
		return "", fmt.Errorf("unexpected response type: %s", message.Content[0].Type)
	}

	text := cleanText(message.Content[0].Text, maxChars)
	if text == "" {
		return "", fmt.Errorf("empty description in response")
	}
	return text, nil
}

// cleanText collapses whitespace, strips wrapping quotes and cuts the result
// to at most maxChars characters on a word boundary where possible.
func cleanText(s string, maxChars int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, `"'`)

	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}

	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}

// isImageMimeType checks if the MIME type is a valid image type
func isImageMimeType(mimeType string) bool {
	return slices.Contains(imageMimeTypes, mimeType)
}
