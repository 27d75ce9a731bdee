// Package upload 把光球内容以 multipart 表单发送到后端
//
// 表单字段：
//   - text: 光球文字（有文字时）
//   - files: image.jpg（image/jpg）和 video.mp4（video/mp4）
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/decker502/orbgallery/pkg/types"
)

// 默认值
const (
	DefaultEndpoint    = "http://localhost:5000/uploads"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
)

// Client 上传客户端
type Client struct {
	endpoint    string
	httpClient  *http.Client
	concurrency int
	logger      *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.httpClient = c }
}

// WithConcurrency 设置 UploadAll 的并发上限
func WithConcurrency(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.concurrency = n
		}
	}
}

// NewClient 创建上传客户端，endpoint 为空时使用 DefaultEndpoint
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: DefaultConcurrency,
		logger:      logger.Named("upload"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint 上传地址
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload 上传一个光球
func (c *Client) Upload(ctx context.Context, rec types.OrbRecord) error {
	if !rec.HasContent() {
		return fmt.Errorf("orb %s has nothing to upload", rec.ID)
	}

	body, contentType, err := buildForm(rec)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected status %s", c.endpoint, resp.Status)
	}

	c.logger.Info("orb uploaded",
		zap.String("id", rec.ID),
		zap.Bool("text", rec.HasText()),
		zap.Bool("image", rec.HasImage()),
		zap.Bool("video", rec.HasVideo()))
	return nil
}

// UploadAll 并发上传多个光球，任一失败时取消其余请求并返回第一个错误
func (c *Client) UploadAll(ctx context.Context, recs []types.OrbRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			return c.Upload(gctx, rec)
		})
	}
	return g.Wait()
}

// buildForm 组装 multipart 表单
func buildForm(rec types.OrbRecord) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if rec.HasText() {
		if err := w.WriteField("text", rec.Text); err != nil {
			return nil, "", fmt.Errorf("write text field: %w", err)
		}
	}
	if rec.HasImage() {
		if err := addFile(w, rec.ImagePath, "image.jpg", "image/jpg"); err != nil {
			return nil, "", err
		}
	}
	if rec.HasVideo() {
		if err := addFile(w, rec.VideoPath, "video.mp4", "video/mp4"); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func addFile(w *multipart.Writer, path, filename, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", filename, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
