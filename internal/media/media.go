package media

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Upload constraint violations, translated to 400/404 responses at the boundary.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files")
	ErrNotFound        = errors.New("file not found")
)

const (
	defaultMaxFileBytes        int64 = 10 * 1024 * 1024
	defaultMaxSingleImageBytes int64 = 5 * 1024 * 1024
	defaultUploadsBasePath           = "./uploads"
	defaultPublicBaseURL             = "http://localhost:8000"

	// MaxImagesPerStory caps the image list attached to a single story upload.
	MaxImagesPerStory = 5
	// MaxVideosPerStory caps the optional video attached to a story upload.
	MaxVideosPerStory = 1
)

// Kind is the media category a file belongs to.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

var imageExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
	".mkv":  {},
}

var imageMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
}

var videoMimeTypes = map[string]struct{}{
	"video/mp4":        {},
	"video/quicktime":  {},
	"video/x-msvideo":  {},
	"video/webm":       {},
	"video/x-matroska": {},
}

// Store validates uploads, writes them under a base directory, and maps
// issued URLs back to files for deletion.
type Store struct {
	BaseDir string
	BaseURL string
}

// SavedFile describes a file written to durable storage during a request.
type SavedFile struct {
	Field    string
	Filename string
	URL      string
	Size     int64
}

func NewStore(baseDir, baseURL string) *Store {
	return &Store{
		BaseDir: baseDir,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewStoreFromEnv builds a Store from UPLOADS_PATH and APP_BASE_URL.
func NewStoreFromEnv() *Store {
	return NewStore(resolveUploadsBasePath(), resolvePublicBaseURL())
}

func normalizeMimeType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if separator := strings.Index(normalized, ";"); separator >= 0 {
		normalized = strings.TrimSpace(normalized[:separator])
	}
	return normalized
}

// classify checks the extension and the declared content type against the
// allow-lists. Both must agree on the same category or the file is rejected.
func classify(header *multipart.FileHeader) (Kind, error) {
	extension := strings.ToLower(filepath.Ext(header.Filename))
	declared := normalizeMimeType(header.Header.Get("Content-Type"))

	_, isImageExt := imageExtensions[extension]
	_, isVideoExt := videoExtensions[extension]
	_, isImageMime := imageMimeTypes[declared]
	_, isVideoMime := videoMimeTypes[declared]

	switch {
	case isImageExt && isImageMime:
		return KindImage, nil
	case isVideoExt && isVideoMime:
		return KindVideo, nil
	}
	return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidFileType, header.Filename, declared)
}

// sniffKind detects the media category from leading file bytes. The second
// return value is false when the detected type is neither image nor video.
func sniffKind(data []byte) (Kind, bool) {
	detected := mimetype.Detect(data).String()
	switch {
	case strings.HasPrefix(detected, "image/"):
		return KindImage, true
	case strings.HasPrefix(detected, "video/"):
		return KindVideo, true
	}
	return 0, false
}

// SaveImages stores a story's image set. On any failure the files already
// written for this call are removed before returning.
func (s *Store) SaveImages(headers []*multipart.FileHeader) ([]SavedFile, error) {
	if len(headers) > MaxImagesPerStory {
		return nil, fmt.Errorf("%w: at most %d images per story", ErrTooManyFiles, MaxImagesPerStory)
	}

	saved := make([]SavedFile, 0, len(headers))
	for _, header := range headers {
		file, err := s.save(header, "images", resolveMaxFileBytes(), KindImage)
		if err != nil {
			s.Cleanup(saved)
			return nil, err
		}
		saved = append(saved, file)
	}
	return saved, nil
}

// SaveVideo stores a story's optional video file.
func (s *Store) SaveVideo(header *multipart.FileHeader) (SavedFile, error) {
	return s.save(header, "video", resolveMaxFileBytes(), KindVideo)
}

// SaveSingleImage stores one image for the standalone upload endpoint, which
// carries a tighter size ceiling than story uploads.
func (s *Store) SaveSingleImage(header *multipart.FileHeader) (SavedFile, error) {
	return s.save(header, "image", resolveMaxSingleImageBytes(), KindImage)
}

func (s *Store) save(header *multipart.FileHeader, field string, limit int64, want Kind) (SavedFile, error) {
	kind, err := classify(header)
	if err != nil {
		return SavedFile{}, err
	}
	if kind != want {
		return SavedFile{}, fmt.Errorf("%w: %s", ErrInvalidFileType, header.Filename)
	}
	if header.Size > 0 && header.Size > limit {
		return SavedFile{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, header.Filename, limit)
	}

	src, err := header.Open()
	if err != nil {
		return SavedFile{}, fmt.Errorf("opening upload %s: %w", header.Filename, err)
	}
	defer src.Close()

	buffer := make([]byte, 512)
	bytesRead, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return SavedFile{}, fmt.Errorf("reading upload %s: %w", header.Filename, err)
	}
	if bytesRead == 0 {
		return SavedFile{}, fmt.Errorf("%w: %s is empty", ErrInvalidFileType, header.Filename)
	}

	// The sniffed content must not contradict the declared category.
	if sniffed, known := sniffKind(buffer[:bytesRead]); known && sniffed != kind {
		return SavedFile{}, fmt.Errorf("%w: %s content does not match its declared type", ErrInvalidFileType, header.Filename)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return SavedFile{}, fmt.Errorf("rewinding upload %s: %w", header.Filename, err)
	}

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("creating upload directory: %w", err)
	}

	name := uniqueFilename(field, filepath.Ext(header.Filename))
	fullPath := filepath.Join(s.BaseDir, name)

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return SavedFile{}, fmt.Errorf("creating upload file: %w", err)
	}

	written, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		if copyErr != nil {
			return SavedFile{}, fmt.Errorf("writing upload %s: %w", header.Filename, copyErr)
		}
		return SavedFile{}, fmt.Errorf("finalizing upload %s: %w", header.Filename, closeErr)
	}
	if written > limit {
		_ = os.Remove(fullPath)
		return SavedFile{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, header.Filename, limit)
	}

	return SavedFile{
		Field:    field,
		Filename: name,
		URL:      s.urlFor(name),
		Size:     written,
	}, nil
}

// Remove deletes the file behind a previously issued URL. Returns ErrNotFound
// when no such file exists.
func (s *Store) Remove(fileURL string) error {
	fullPath, err := s.pathForURL(fileURL)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path.Base(fullPath))
	}
	return os.Remove(fullPath)
}

// Cleanup removes files written earlier in the same request. Used to roll
// back a failed create or edit; failures are logged, never returned.
func (s *Store) Cleanup(files []SavedFile) {
	for _, file := range files {
		fullPath := filepath.Join(s.BaseDir, file.Filename)
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Error rolling back upload %s: %v", file.Filename, err)
		}
	}
}

// CleanupURLs best-effort deletes media by URL. A missing file is fine; any
// other failure is logged and swallowed.
func (s *Store) CleanupURLs(urls ...string) {
	for _, fileURL := range urls {
		if err := s.Remove(fileURL); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("Error deleting media file for %s: %v", fileURL, err)
		}
	}
}

func (s *Store) urlFor(name string) string {
	return s.BaseURL + "/uploads/" + name
}

func (s *Store) pathForURL(fileURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(fileURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fileURL)
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fileURL)
	}

	// filepath.Base again so a crafted URL cannot escape the base directory.
	return filepath.Join(s.BaseDir, filepath.Base(name)), nil
}

// uniqueFilename composes a durable name from the field tag, a millisecond
// timestamp, and a random discriminator, preserving the original extension.
func uniqueFilename(field, extension string) string {
	var raw [4]byte
	discriminator := time.Now().UnixNano() % 1_000_000_000
	if _, err := rand.Read(raw[:]); err == nil {
		discriminator = int64(binary.BigEndian.Uint32(raw[:])) % 1_000_000_000
	}
	return fmt.Sprintf("%s-%d-%d%s", field, time.Now().UnixMilli(), discriminator, strings.ToLower(extension))
}
