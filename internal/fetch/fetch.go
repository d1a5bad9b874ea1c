package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
)

// ErrTooLarge is returned when the fetched content exceeds the limit.
var ErrTooLarge = errors.New("source exceeds size limit")

type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher downloads submission sources referenced by URL.
type Fetcher struct {
	s3Client   s3Getter
	httpClient *http.Client
}

// New returns a Fetcher; s3Client may be nil when S3 references are not used.
func New(s3Client s3Getter, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{s3Client: s3Client, httpClient: httpClient}
}

func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Fetch downloads ref and returns at most limit bytes of decoded content.
// Sources stored as .zst are decompressed; the limit applies after
// decompression.
func (f *Fetcher) Fetch(ctx context.Context, ref string, limit int64) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source url %s: %w", ref, err)
	}

	var body io.ReadCloser
	var contentType string
	if bucket, key, ok := s3Location(u); ok {
		body, contentType, err = f.getS3(ctx, bucket, key)
	} else if u.Scheme == "http" || u.Scheme == "https" {
		body, contentType, err = f.getHttp(ctx, u.String())
	} else {
		return nil, fmt.Errorf("unsupported source url scheme: %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var rd io.Reader = body
	if contentType == "application/zstd" || path.Ext(u.Path) == ".zst" {
		d, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer d.Close()
		rd = d
	}

	data, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", ref, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// s3Location accepts s3://bucket/key and https://bucket.s3.region.amazonaws.com/key.
func s3Location(u *url.URL) (bucket string, key string, ok bool) {
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme == "s3" {
		return u.Host, key, true
	}
	if u.Scheme != "https" || !strings.HasSuffix(u.Host, ".amazonaws.com") {
		return "", "", false
	}
	hostParts := strings.Split(u.Host, ".")
	if len(hostParts) < 3 || hostParts[1] != "s3" {
		return "", "", false
	}
	return hostParts[0], key, true
}

func (f *Fetcher) getS3(ctx context.Context, bucket string, key string) (io.ReadCloser, string, error) {
	if f.s3Client == nil {
		return nil, "", fmt.Errorf("no S3 client configured for s3://%s/%s", bucket, key)
	}
	slog.Debug("downloading source from s3", "bucket", bucket, "key", key)
	obj, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	return obj.Body, aws.ToString(obj.ContentType), nil
}

func (f *Fetcher) getHttp(ctx context.Context, rawUrl string) (io.ReadCloser, string, error) {
	slog.Debug("downloading source", "url", rawUrl)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", rawUrl, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("failed to download %s: %s", rawUrl, resp.Status)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
