package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/catsync/catsync/internal/config"
)

const (
	googleTranslateURL = "https://translation.googleapis.com/language/translate/v2"
	deeplTranslateURL  = "https://api-free.deepl.com/v2/translate"
)

// NewProvider builds the translation backend selected by the
// configured driver.
func NewProvider(cfg config.TranslatorConfig) (Provider, error) {
	switch cfg.Driver {
	case config.DriverGoogle:
		return &GoogleProvider{
			apiKey:     cfg.APIKey,
			endpoint:   endpointOrDefault(cfg.Endpoint, googleTranslateURL),
			httpClient: newProviderHTTPClient(),
		}, nil
	case config.DriverDeepL:
		return &DeepLProvider{
			apiKey:     cfg.APIKey,
			endpoint:   endpointOrDefault(cfg.Endpoint, deeplTranslateURL),
			httpClient: newProviderHTTPClient(),
		}, nil
	case config.DriverLLM:
		if cfg.Endpoint == "" {
			return nil, errors.New("the llm driver requires an endpoint")
		}
		return &LLMProvider{
			apiKey:     cfg.APIKey,
			endpoint:   cfg.Endpoint,
			model:      cfg.Model,
			httpClient: newProviderHTTPClient(),
		}, nil
	default:
		return nil, errors.Errorf("unknown translator driver %q", cfg.Driver)
	}
}

func endpointOrDefault(endpoint, fallback string) string {
	if endpoint != "" {
		return endpoint
	}
	return fallback
}

func newProviderHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// GoogleProvider calls the Google Cloud Translation v2 REST API.
type GoogleProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Name implements Provider.
func (p *GoogleProvider) Name() string {
	return "google"
}

// Translate implements Provider.
func (p *GoogleProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body := map[string]interface{}{
		"q":      text,
		"source": sourceLang,
		"target": targetLang,
		"format": "text",
	}

	var response struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}

	u := fmt.Sprintf("%s?key=%s", p.endpoint, url.QueryEscape(p.apiKey))
	err := postJSON(ctx, p.httpClient, u, nil, body, &response)
	if err != nil {
		return "", err
	}

	if len(response.Data.Translations) == 0 {
		return "", errors.New("response contained no translations")
	}

	return response.Data.Translations[0].TranslatedText, nil
}

// DeepLProvider calls the DeepL v2 REST API.
type DeepLProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Name implements Provider.
func (p *DeepLProvider) Name() string {
	return "deepl"
}

// Translate implements Provider.
func (p *DeepLProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body := map[string]interface{}{
		"text":        []string{text},
		"source_lang": strings.ToUpper(sourceLang),
		"target_lang": strings.ToUpper(targetLang),
	}

	var response struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}

	headers := map[string]string{
		"Authorization": fmt.Sprintf("DeepL-Auth-Key %s", p.apiKey),
	}
	err := postJSON(ctx, p.httpClient, p.endpoint, headers, body, &response)
	if err != nil {
		return "", err
	}

	if len(response.Translations) == 0 {
		return "", errors.New("response contained no translations")
	}

	return response.Translations[0].Text, nil
}

// LLMProvider calls an OpenAI-compatible chat completion endpoint and
// instructs the model to act as a translator.
type LLMProvider struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

// Name implements Provider.
func (p *LLMProvider) Name() string {
	return "llm"
}

// Translate implements Provider.
func (p *LLMProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following product text from %s to %s. Reply with the translation only, no commentary.",
		sourceLang, targetLang)

	body := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
			{"role": "user", "content": text},
		},
		"temperature": 0,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", p.apiKey)
	}
	err := postJSON(ctx, p.httpClient, p.endpoint, headers, body, &response)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func postJSON(ctx context.Context, client *http.Client, u string, headers map[string]string, body, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("request rejected with status code %d: %s", resp.StatusCode, string(snippet))
	}

	err = json.NewDecoder(resp.Body).Decode(dest)
	if err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}
