package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// PDFClient memanggil layanan render PDF eksternal: POST {base}/render → {"url": "..."}.
type PDFClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewPDFClient(baseURL string, timeout time.Duration) *PDFClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

type renderResponse struct {
	URL string `json:"url"`
}

func (c *PDFClient) Render(ctx context.Context, formID uuid.UUID) (string, error) {
	body, err := sonic.Marshal(renderRequest{AssessmentID: formID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf service /render returned status %s", res.Status)
	}

	var out renderResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", fmt.Errorf("pdf service returned empty url for %s", formID)
	}
	return out.URL, nil
}
