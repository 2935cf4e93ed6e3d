package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/version"
)

// Descriptor declares what a download must look like once fetched.
type Descriptor struct {
	URL  string
	Size int64
	// SHA1 is the hex digest published by the upstream distributor.
	SHA1 string
	// Key is the cache key the verified content is committed under.
	Key string
}

// Validate checks that the descriptor is usable before any I/O happens.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return errors.New("download url required")
	}
	if strings.TrimSpace(d.Key) == "" {
		return errors.New("download key required")
	}
	if d.Size < 0 {
		return fmt.Errorf("download size must not be negative: %d", d.Size)
	}
	if _, err := hex.DecodeString(d.SHA1); err != nil || len(d.SHA1) != sha1.Size*2 {
		return fmt.Errorf("invalid sha1 %q", d.SHA1)
	}
	return nil
}

// Downloader commits verified downloads into a cache.Store.
type Downloader struct {
	client    *http.Client
	store     cache.Store
	logger    *logrus.Logger
	userAgent string
}

// NewDownloader returns a Downloader that writes into store using client.
func NewDownloader(client *http.Client, store cache.Store, logger *logrus.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Downloader{
		client:    client,
		store:     store,
		logger:    logger,
		userAgent: version.UserAgent(),
	}
}

// Fetch returns the committed content for desc.Key, downloading and
// verifying it first when the key is absent. Once committed, later calls are
// served from disk without touching the network. The caller closes the
// returned reader.
func (d *Downloader) Fetch(ctx context.Context, desc Descriptor) (io.ReadCloser, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	fetched := false
	result, err := d.store.StoreIfAbsent(ctx, desc.Key, func(w io.Writer) error {
		fetched = true
		return d.download(ctx, desc, w)
	})
	fields := logrus.Fields{
		"action": "download",
		"url":    desc.URL,
		"key":    desc.Key,
	}
	if err != nil {
		var dErr *Error
		if errors.As(err, &dErr) {
			fields["code"] = dErr.Code()
		}
		d.logger.WithError(err).WithFields(fields).Warn("download_failed")
		return nil, err
	}

	fields["cache_hit"] = !fetched
	fields["size_bytes"] = result.Entry.SizeBytes
	d.logger.WithFields(fields).Debug("download_ready")
	return result.Reader, nil
}

func (d *Downloader) download(ctx context.Context, desc Descriptor, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return newError(KindTransport, desc.URL, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return newError(KindTransport, desc.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.logger.WithFields(logrus.Fields{
			"action": "download",
			"url":    desc.URL,
			"status": resp.StatusCode,
			"body":   string(snippet),
		}).Warn("upstream_error_response")
		return newError(KindTransport, desc.URL, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	hasher := sha1.New()
	n, err := io.Copy(io.MultiWriter(w, hasher), &bodyReader{r: resp.Body, url: desc.URL})
	if err != nil {
		return err
	}
	return verify(n, hex.EncodeToString(hasher.Sum(nil)), desc)
}

// Verify applies the length and hash checks to an in-memory body.
func Verify(body []byte, desc Descriptor) error {
	sum := sha1.Sum(body)
	return verify(int64(len(body)), hex.EncodeToString(sum[:]), desc)
}

func verify(size int64, digest string, desc Descriptor) error {
	if size != desc.Size {
		return newError(KindLengthMismatch, desc.URL, fmt.Errorf("%d != %d", size, desc.Size))
	}
	if !strings.EqualFold(digest, desc.SHA1) {
		return newError(KindHashMismatch, desc.URL, fmt.Errorf("%s != %s", digest, desc.SHA1))
	}
	return nil
}

// bodyReader 把读取响应体时的错误标记为传输错误，写盘错误保持原样。
type bodyReader struct {
	r   io.Reader
	url string
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, newError(KindTransport, b.url, err)
	}
	return n, err
}
