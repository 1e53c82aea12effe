package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1/"

// ErrNoURL is returned when the media service answers without an asset URL.
var ErrNoURL = errors.New("media: response carries no url")

// Cloudinary is a minimal client for signed image uploads and asset lookups.
type Cloudinary struct {
	baseURL   string // ends with the cloud name and a slash
	apiKey    string
	apiSecret string
	client    *http.Client
	logger    *logger.Logger
	now       func() time.Time
}

var _ ports.MediaStore = (*Cloudinary)(nil)

// NewCloudinary builds a client for the given cloud. An empty baseURL selects the public API.
func NewCloudinary(baseURL, cloudName, apiKey, apiSecret string, timeout time.Duration, log *logger.Logger) *Cloudinary {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Cloudinary{
		baseURL:   strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(cloudName) + "/",
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: timeout},
		logger:    log,
		now:       time.Now,
	}
}

// Sign returns the hex SHA-1 of the sorted "k=v" pairs joined by "&" followed by secret.
// file, cloud_name, resource_type and api_key are never signed.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		switch k {
		case "file", "cloud_name", "resource_type", "api_key":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

type assetResponse struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
}

func (a assetResponse) pick() (string, error) {
	if a.SecureURL != "" {
		return a.SecureURL, nil
	}
	if a.URL != "" {
		return a.URL, nil
	}
	return "", ErrNoURL
}

// Upload stores data under publicID and returns the asset URL.
func (c *Cloudinary) Upload(ctx context.Context, publicID string, data []byte) (string, error) {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	params["signature"] = Sign(params, c.apiSecret)
	params["api_key"] = c.apiKey

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("media: form field %s: %w", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", "upload.png")
	if err != nil {
		return "", fmt.Errorf("media: form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("media: form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("media: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"image/upload/", &body)
	if err != nil {
		return "", fmt.Errorf("media: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info(ctx, "media_upload", "Uploading image", map[string]any{"public_id": publicID, "size": len(data)})

	var out assetResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.pick()
}

// FetchURL resolves the URL of an uploaded image.
func (c *Cloudinary) FetchURL(ctx context.Context, publicID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"resources/image/upload/"+publicID, nil)
	if err != nil {
		return "", fmt.Errorf("media: build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	var out assetResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.pick()
}

func (c *Cloudinary) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("media: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("media: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("media: decode response: %w", err)
	}
	return nil
}

// Disabled is used when no media credentials are configured. Every call fails.
type Disabled struct{}

var _ ports.MediaStore = Disabled{}

// ErrDisabled reports that media storage is not configured.
var ErrDisabled = errors.New("media storage is not configured")

func (Disabled) Upload(context.Context, string, []byte) (string, error) { return "", ErrDisabled }
func (Disabled) FetchURL(context.Context, string) (string, error)       { return "", ErrDisabled }
