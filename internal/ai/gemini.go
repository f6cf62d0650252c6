package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ownly/go-vault-backend/internal/domain"
)

const detectPrompt = "Analyze this photo of a storage box or area. Identify all distinct items inside. " +
	"Return a JSON array of objects with the following keys: 'name', 'brand', 'color', 'size', " +
	"'description', 'category' (one of: Food, Clothes, Gym, Tools, Electronics, Other), " +
	"'price' (numeric estimate), 'storageLocation' (based on context of photo or box label), " +
	"'datePurchased' (if visible), and 'box_2d' ([top, left, bottom, right], each 0-1000, " +
	"locating the item in the image). Return only the JSON array."

const advicePromptFmt = "The user is considering buying the item in this photo. Based on their current " +
	"inventory: [%s], should they buy it? If they have something similar, tell them where it is. " +
	"If it's a good addition, explain why. Keep it concise and helpful."

const chatPromptFmt = "User Query: %q\n\nInventory Data: %s\n\nYou are a helpful home inventory " +
	"assistant. Answer questions about where things are, suggest what to declutter (oldest items), " +
	"or find items by description."

// GeminiClient implements Client against the Generative Language REST API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	retries    int
	httpClient *http.Client
}

// NewGeminiClient constructs a client. baseURL should point at the API root
// (e.g. "https://generativelanguage.googleapis.com/v1beta"); tests point it
// at an httptest server instead.
func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration, retries int) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		retries:    retries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// --- wire types for generateContent ---

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inline_data,omitempty"`
}

type genInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig *genConfig   `json:"generationConfig,omitempty"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// DetectItems implements Client.
func (c *GeminiClient) DetectItems(ctx context.Context, jpegData []byte) ([]domain.RawDetection, error) {
	req := genRequest{
		Contents: []genContent{{Parts: []genPart{
			{InlineData: &genInlineData{MIMEType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(jpegData)}},
			{Text: detectPrompt},
		}}},
		GenerationConfig: &genConfig{ResponseMIMEType: "application/json"},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var detections []domain.RawDetection
	if err := json.Unmarshal([]byte(stripFences(text)), &detections); err != nil {
		log.Warn().Err(err).Msg("undecodable detection reply")
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return detections, nil
}

// ShoppingAdvice implements Client.
func (c *GeminiClient) ShoppingAdvice(ctx context.Context, jpegData []byte, inventorySummary string) (string, error) {
	req := genRequest{
		Contents: []genContent{{Parts: []genPart{
			{InlineData: &genInlineData{MIMEType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(jpegData)}},
			{Text: fmt.Sprintf(advicePromptFmt, inventorySummary)},
		}}},
	}
	return c.generate(ctx, req)
}

// Chat implements Client.
func (c *GeminiClient) Chat(ctx context.Context, query, inventoryContext string) (string, error) {
	req := genRequest{
		Contents: []genContent{{Parts: []genPart{
			{Text: fmt.Sprintf(chatPromptFmt, query, inventoryContext)},
		}}},
	}
	return c.generate(ctx, req)
}

// generate posts one generateContent request and returns the first candidate's
// concatenated text. Transient failures (network, 429, 5xx) are retried with
// linear backoff up to the configured retry limit.
func (c *GeminiClient) generate(ctx context.Context, req genRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadReply, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, truncateBody(b))
			resp = nil
			continue
		}
		break
	}
	if resp == nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncateBody(b))
	}

	var gr genResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrBadReply)
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// stripFences removes a surrounding markdown code fence, which some model
// versions add despite the JSON response MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
