package media

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "http://localhost:8000")
}

// makeFileHeader builds a parsed multipart file header with an explicit
// declared content type, the same shape gin hands to handlers.
func makeFileHeader(t *testing.T, field, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	writer.Close()

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	headers := form.File[field]
	if len(headers) != 1 {
		t.Fatalf("expected one file header, got %d", len(headers))
	}
	return headers[0]
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func TestClassifyAgreement(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		wantKind    Kind
		wantErr     bool
	}{
		{"png image", "a.png", "image/png", KindImage, false},
		{"jpeg with charset", "a.jpg", "image/jpeg; charset=binary", KindImage, false},
		{"uppercase extension", "A.GIF", "image/gif", KindImage, false},
		{"mp4 video", "a.mp4", "video/mp4", KindVideo, false},
		{"mov video", "a.mov", "video/quicktime", KindVideo, false},
		{"mkv video", "a.mkv", "video/x-matroska", KindVideo, false},
		{"pdf rejected", "a.pdf", "application/pdf", 0, true},
		{"image ext video mime", "a.png", "video/mp4", 0, true},
		{"video ext image mime", "a.mp4", "image/png", 0, true},
		{"no extension", "a", "image/png", 0, true},
		{"svg rejected", "a.svg", "image/svg+xml", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := makeFileHeader(t, "file", tc.filename, tc.contentType, []byte("x"))
			kind, err := classify(header)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFileType) {
					t.Fatalf("expected ErrInvalidFileType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tc.wantKind {
				t.Fatalf("expected kind %v, got %v", tc.wantKind, kind)
			}
		})
	}
}

func TestSaveSingleImageWritesFile(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveSingleImage(makeFileHeader(t, "image", "sunset.png", "image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveSingleImage: %v", err)
	}

	if !strings.HasPrefix(saved.Filename, "image-") || !strings.HasSuffix(saved.Filename, ".png") {
		t.Fatalf("unexpected filename: %s", saved.Filename)
	}
	if saved.URL != "http://localhost:8000/uploads/"+saved.Filename {
		t.Fatalf("unexpected URL: %s", saved.URL)
	}
	if saved.Size != int64(len(pngBytes)) {
		t.Fatalf("expected size %d, got %d", len(pngBytes), saved.Size)
	}
	if _, err := os.Stat(filepath.Join(store.BaseDir, saved.Filename)); err != nil {
		t.Fatalf("expected the file on disk: %v", err)
	}
}

func TestSaveSingleImageRejectsEmptyFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveSingleImage(makeFileHeader(t, "image", "empty.png", "image/png", nil))
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("rejected uploads must not leave files")
	}
}

func TestSaveRejectsContradictingContent(t *testing.T) {
	store := newTestStore(t)

	// Declared and named as a video, but the bytes are a PNG.
	header := makeFileHeader(t, "video", "clip.mp4", "video/mp4", pngBytes)
	_, err := store.SaveVideo(header)
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("rejected uploads must not leave files")
	}
}

func TestSaveImagesCapsCount(t *testing.T) {
	store := newTestStore(t)

	headers := make([]*multipart.FileHeader, 0, MaxImagesPerStory+1)
	for i := 0; i <= MaxImagesPerStory; i++ {
		headers = append(headers, makeFileHeader(t, "images", fmt.Sprintf("img%d.png", i), "image/png", pngBytes))
	}

	_, err := store.SaveImages(headers)
	if !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("the cap check must run before any file is written")
	}
}

func TestSaveImagesRollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)

	headers := []*multipart.FileHeader{
		makeFileHeader(t, "images", "good.png", "image/png", pngBytes),
		makeFileHeader(t, "images", "bad.pdf", "application/pdf", []byte("%PDF-1.4")),
	}

	_, err := store.SaveImages(headers)
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("a mid-batch failure must remove files written earlier in the batch")
	}
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	t.Setenv("MEDIA_MAX_FILE_BYTES", "8")
	store := newTestStore(t)

	_, err := store.SaveImages([]*multipart.FileHeader{
		makeFileHeader(t, "images", "big.png", "image/png", pngBytes),
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("oversized uploads must not leave files")
	}
}

func TestUniqueFilenames(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		saved, err := store.SaveSingleImage(makeFileHeader(t, "image", "same.png", "image/png", pngBytes))
		if err != nil {
			t.Fatalf("SaveSingleImage: %v", err)
		}
		if _, dup := seen[saved.Filename]; dup {
			t.Fatalf("duplicate generated filename: %s", saved.Filename)
		}
		seen[saved.Filename] = struct{}{}
	}
}

func TestRemoveMissingFile(t *testing.T) {
	store := newTestStore(t)

	err := store.Remove("http://localhost:8000/uploads/ghost.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveDeletesByURL(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveSingleImage(makeFileHeader(t, "image", "sunset.png", "image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveSingleImage: %v", err)
	}
	if err := store.Remove(saved.URL); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("expected the file to be gone")
	}
}

func TestCleanupURLsIgnoresMissing(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveSingleImage(makeFileHeader(t, "image", "sunset.png", "image/png", pngBytes))
	if err != nil {
		t.Fatalf("SaveSingleImage: %v", err)
	}

	// One real file, one that never existed. Neither may panic or error.
	store.CleanupURLs(saved.URL, "http://localhost:8000/uploads/ghost.png")
	if countFiles(t, store.BaseDir) != 0 {
		t.Fatal("expected the real file to be gone")
	}
}

func TestPathForURLStaysInsideBaseDir(t *testing.T) {
	store := newTestStore(t)

	fullPath, err := store.pathForURL("http://localhost:8000/uploads/..%2F..%2Fetc%2Fpasswd")
	if err != nil {
		t.Fatalf("pathForURL: %v", err)
	}
	if !strings.HasPrefix(fullPath, store.BaseDir+string(filepath.Separator)) {
		t.Fatalf("resolved path escapes the base directory: %s", fullPath)
	}
}
