package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"imgbed/internal/fetcher"
	"imgbed/internal/model"
	"imgbed/internal/storage"
)

// DefaultImageExts is the allow-list applied to remote imports and to
// anonymous uploads.
var DefaultImageExts = []string{".jpg", ".jpeg", ".png", ".gif"}

// LocalImageExts additionally permits webp for browser-submitted files in the
// authenticated variant. Remote imports keep the narrower list.
var LocalImageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// LocalFile is one browser-submitted upload item.
type LocalFile struct {
	Filename string
	Reader   io.Reader
	Size     int64
}

// UploadService processes a batch of browser-submitted files and remote image
// URLs into stored objects and shareable links.
type UploadService interface {
	// Process stores accepted items and returns their results: local files in
	// submission order first, then remote imports in submission order.
	// Rejected and failed items contribute nothing. An empty result slice
	// means no item succeeded.
	Process(ctx context.Context, files []LocalFile, urls []string) ([]model.UploadResult, error)
}

type uploadService struct {
	store      storage.Storage
	fetch      fetcher.Fetcher
	localExts  []string
	remoteExts []string
	now        func() time.Time
}

// NewUploadService constructs an UploadService. localExts is the allow-list
// for browser-submitted files; remote imports always use DefaultImageExts.
func NewUploadService(store storage.Storage, fetch fetcher.Fetcher, localExts []string) UploadService {
	return &uploadService{
		store:      store,
		fetch:      fetch,
		localExts:  localExts,
		remoteExts: DefaultImageExts,
		now:        time.Now,
	}
}

// ExtensionAllowed reports whether the filename's extension, lower-cased,
// belongs to the allow-list. Filenames without a recognized extension are
// rejected, never reported as errors.
func ExtensionAllowed(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// BuildObjectKey namespaces uploads by calendar day: YYYY/MM/DD/<basename>.
// Deterministic given its inputs; same-day uploads of identically named files
// overwrite each other.
func BuildObjectKey(basename string, now time.Time) string {
	return now.Format("2006/01/02") + "/" + basename
}

func (s *uploadService) Process(ctx context.Context, files []LocalFile, urls []string) ([]model.UploadResult, error) {
	results := make([]model.UploadResult, 0, len(files)+len(urls))

	for _, f := range files {
		// Reduce to a basename so a crafted filename cannot escape the date prefix.
		name := filepath.Base(filepath.ToSlash(f.Filename))
		if !ExtensionAllowed(name, s.localExts) {
			continue
		}
		key := BuildObjectKey(name, s.now())
		info, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
			Size:        f.Size,
			ContentType: contentTypeFor(name),
		})
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", name, err)
		}
		results = append(results, model.UploadResult{URL: info.URL, DisplayName: name})
	}

	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if res, ok := s.importRemote(ctx, raw); ok {
			results = append(results, res)
		}
	}

	return results, nil
}

// importRemote downloads one URL and stores it. Any failure (parse, fetch,
// store) only skips this item; the rest of the batch continues.
func (s *uploadService) importRemote(ctx context.Context, rawURL string) (model.UploadResult, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		log.Printf("skipping remote image %q: unusable URL", rawURL)
		return model.UploadResult{}, false
	}
	name := path.Base(u.Path)

	body, err := s.fetch.Fetch(ctx, rawURL)
	if err != nil {
		log.Printf("skipping remote image %q: %v", rawURL, err)
		return model.UploadResult{}, false
	}

	if !ExtensionAllowed(name, s.remoteExts) {
		return model.UploadResult{}, false
	}

	key := BuildObjectKey(name, s.now())
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: contentTypeFor(name),
	})
	if err != nil {
		log.Printf("skipping remote image %q: store: %v", rawURL, err)
		return model.UploadResult{}, false
	}

	return model.UploadResult{URL: info.URL, DisplayName: name}, true
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
