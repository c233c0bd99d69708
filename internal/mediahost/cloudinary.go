package mediahost

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/activity-media-api/pkg/config"
)

// posterTransformation is the eager transformation requested for every video
// upload: a 320x180 "fit" crop the host derives into a still thumbnail.
const posterTransformation = "c_fit,h_180,w_320"

// CloudinaryUploader pushes staged files to the Cloudinary upload API.
// Credentials are injected once at construction; the adapter performs no
// environment lookups of its own.
type CloudinaryUploader struct {
	cfg     config.MediaHostConfig
	client  *http.Client
	baseURL string
}

// NewCloudinaryUploader constructs the adapter.
func NewCloudinaryUploader(cfg config.MediaHostConfig) *CloudinaryUploader {
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CloudinaryUploader{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.cloudinary.com",
	}
}

type cloudinaryEager struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

type cloudinaryResponse struct {
	SecureURL string            `json:"secure_url"`
	URL       string            `json:"url"`
	Eager     []cloudinaryEager `json:"eager"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload streams the staged file to the remote host and returns its canonical
// URL. Video uploads also request the derived poster thumbnail; if the host
// returns none, PosterURL stays empty and the caller decides what that means.
func (u *CloudinaryUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.Path == "" {
		return nil, fmt.Errorf("upload path is required")
	}
	if input.Kind != KindImage && input.Kind != KindVideo {
		return nil, fmt.Errorf("unsupported upload kind %q", input.Kind)
	}

	file, err := os.Open(input.Path)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	params := map[string]string{
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		"public_id": u.publicID(),
	}
	if input.Kind == KindVideo {
		params["eager"] = posterTransformation
	}
	signature := signParams(params, u.cfg.APISecret)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(mw, file, filepath.Base(input.Path), params, u.cfg.APIKey, signature)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", u.baseURL, u.cfg.CloudName, input.Kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media host request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var parsed cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode media host response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Error.Message != "" {
			return nil, fmt.Errorf("media host http %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("media host http %d", resp.StatusCode)
	}

	result := &UploadResult{URL: preferSecure(parsed.SecureURL, parsed.URL)}
	if len(parsed.Eager) > 0 {
		result.PosterURL = preferSecure(parsed.Eager[0].SecureURL, parsed.Eager[0].URL)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("media host returned no url")
	}
	return result, nil
}

// publicID produces a globally unique storage key so one submission can never
// overwrite another's object.
func (u *CloudinaryUploader) publicID() string {
	folder := strings.Trim(u.cfg.UploadFolder, "/")
	if folder == "" {
		folder = "activities"
	}
	return fmt.Sprintf("%s/%d_%s", folder, time.Now().UnixNano(), randomSuffix())
}

func writeUploadForm(mw *multipart.Writer, file io.Reader, filename string, params map[string]string, apiKey, signature string) error {
	for key, value := range params {
		if err := mw.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := mw.WriteField("api_key", apiKey); err != nil {
		return err
	}
	if err := mw.WriteField("signature", signature); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// signParams implements the host's request signature: params sorted by key,
// joined "k=v" with "&", secret appended, SHA-1 hex digest.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func preferSecure(secure, plain string) string {
	if secure != "" {
		return secure
	}
	return plain
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
