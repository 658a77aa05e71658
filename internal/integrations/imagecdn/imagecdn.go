package imagecdn

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkravets/photoshare-service/internal/config"
)

// Client handles integration with the image hosting provider. Uploads go to
// the provider's REST API; derived images are plain URL constructions, so
// the transformation work itself stays on the provider's side.
type Client struct {
	cloudName   string
	apiKey      string
	apiSecret   string
	uploadBase  string
	deliverBase string
	folder      string
	client      *http.Client
	log         *logrus.Logger
}

// NewClient initializes a new image CDN client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		cloudName:   cfg.CDNCloudName,
		apiKey:      cfg.CDNAPIKey,
		apiSecret:   cfg.CDNAPISecret,
		uploadBase:  cfg.CDNUploadURL,
		deliverBase: cfg.CDNDeliveryURL,
		folder:      cfg.CDNFolder,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// UploadResult is the part of the provider's response the service consumes.
type UploadResult struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
}

// Upload sends image bytes to the provider and returns the hosted URL and
// public ID.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	publicID := fmt.Sprintf("%s/%s", c.folder, uuid.NewString())
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.WriteField("signature", c.sign(params)); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.uploadBase, c.cloudName)
	respBody, err := c.send(ctx, url, writer.FormDataContentType(), strings.NewReader(body.String()))
	if err != nil {
		return nil, err
	}

	result := &UploadResult{}
	if err := json.Unmarshal(respBody, result); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.URL == "" || result.PublicID == "" {
		return nil, fmt.Errorf("upload response missing url or public_id")
	}

	c.log.Infof("Image uploaded: %s", result.PublicID)
	return result, nil
}

// Destroy removes an image from the provider. Best-effort: callers may
// ignore failures when the database row is already gone.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := fmt.Sprintf("public_id=%s&timestamp=%s&api_key=%s&signature=%s",
		publicID, timestamp, c.apiKey, c.sign(params))
	url := fmt.Sprintf("%s/%s/image/destroy", c.uploadBase, c.cloudName)

	respBody, err := c.send(ctx, url, "application/x-www-form-urlencoded", strings.NewReader(form))
	if err != nil {
		return err
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse destroy response: %w", err)
	}
	if result.Result != "ok" {
		return fmt.Errorf("destroy rejected: %s", result.Result)
	}
	return nil
}

func (c *Client) send(ctx context.Context, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("CDN response (%d): %s", resp.StatusCode, string(respBody))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return respBody, nil
}

// sign produces the provider's request signature: parameters sorted by key,
// joined as a query string, concatenated with the API secret, SHA-1 hexed.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
