package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const classifyPrompt = "Analyze the following Reddit post to determine if it's a user seeking help with photo editing. " +
	"The user might want to remove objects/people, fix colors, improve quality, or similar tasks. " +
	"Respond with only 'relevant' or 'irrelevant'.\n\n" +
	"Title: %s\n" +
	"Content: %s"

const generatePrompt = "You are a helpful Reddit user who has had a great experience with a photo editing app called 'ClearCrowds'. " +
	"Your task is to write a comment on a Reddit post asking for photo editing help. " +
	"Your goal is to write a natural, helpful, and personal-sounding comment that shares your positive experience with the 'ClearCrowds' app, making it sound like a genuine user sharing a tip.\n\n" +
	"**Post Information:**\n" +
	"- **Title:** %s\n" +
	"- **Content:** %s\n\n" +
	"**Strict Rules for your comment:**\n" +
	"1.  **Persona:** Write as if you are a regular person who has used the app. Use \"I\" and share a brief, relevant personal experience. For example, \"I had a photo just like this...\" or \"I remember trying to fix a similar issue...\".\n" +
	"2.  **Natural Tone:** Avoid marketing language. Instead of \"It can do X and Y\", try \"I used it to do X and it worked surprisingly well for Y\".\n" +
	"3.  **Mention the App:** Naturally and subtly mention the \"ClearCrowds\" app.\n" +
	"4.  **Call to Action (Subtle):** You can mention it's on the App Store, but make it sound like a helpful tip, e.g., \"I think I got it from the App Store.\".\n" +
	"5.  **Language:** The comment's language MUST match the language of the post title.\n" +
	"6.  **Length:** Keep the comment concise, around 200-400 characters.\n" +
	"7.  **Output Content:** Your output MUST ONLY be the final comment text. Do not add any extra explanations, notes, or introductory phrases.\n\n" +
	"**Final Comment:**\n"

// Client talks to an OpenAI-compatible chat completions endpoint
// (OpenRouter, vLLM, OpenAI itself).
type Client struct {
	baseURL string // includes /v1
	apiKey  string
	model   string
	client  *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Classify returns the model's raw relevance verdict for a post. Use
// ParseVerdict to turn it into a boolean.
func (c *Client) Classify(ctx context.Context, title, body string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(classifyPrompt, title, body))
}

// Generate returns promotional comment text for a post. The length and tone
// constraints live in the prompt only; nothing validates the output.
func (c *Client) Generate(ctx context.Context, title, body string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(generatePrompt, title, body))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP POST %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, u, string(respBody))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", u)
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// ParseVerdict extracts the boolean relevance verdict from raw classifier
// output. The leading token is matched exactly, "irrelevant" first, so that
// "irrelevant" is never mistaken for "relevant" by a substring test.
// Anything unrecognized counts as not relevant.
func ParseVerdict(raw string) bool {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return false
	}
	token := strings.Trim(fields[0], ".,:;!'\"")
	switch token {
	case "irrelevant":
		return false
	case "relevant":
		return true
	default:
		return false
	}
}
