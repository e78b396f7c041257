// Package drive reads the documents of one Google Drive folder using a
// service account.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"carching-assistant/internal/pkg/pdfextract"
	"carching-assistant/internal/source"
)

const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	MimeTypePDF          = "application/pdf"

	exportMimeText = "text/plain"
	listFields     = "nextPageToken, files(id, name, mimeType, size)"
	pageSize       = 100
)

// MaxDownloadSize bounds every downloaded or exported file.
const MaxDownloadSize = 10 << 20

var (
	ErrNoFolder     = errors.New("drive folder id is not configured")
	ErrUnauthorized = errors.New("drive: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("drive: forbidden (folder not shared with service account)")
	ErrNotFound     = errors.New("drive: resource not found")
	ErrRateLimited  = errors.New("drive: rate limit exceeded")
)

type Config struct {
	FolderID           string
	ServiceAccountFile string
	// ServiceAccountJSON takes precedence over ServiceAccountFile.
	ServiceAccountJSON []byte
	Logger             *slog.Logger
}

type Source struct {
	svc      *drive.Service
	folderID string
	logger   *slog.Logger
}

var _ source.Fetcher = (*Source)(nil)

// New authenticates with the service account key and builds the Drive
// client. Extra options are appended after the token source.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Source, error) {
	if cfg.FolderID == "" {
		return nil, ErrNoFolder
	}
	key := cfg.ServiceAccountJSON
	if len(key) == 0 {
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file failed: %w", err)
		}
		key = data
	}
	jwtCfg, err := google.JWTConfigFromJSON(key, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key failed: %w", err)
	}

	clientOpts := append([]option.ClientOption{option.WithTokenSource(jwtCfg.TokenSource(ctx))}, opts...)
	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service failed: %w", err)
	}
	return NewWithService(svc, cfg.FolderID, cfg.Logger), nil
}

func NewWithService(svc *drive.Service, folderID string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{svc: svc, folderID: folderID, logger: logger}
}

func (s *Source) Label() string {
	return source.LabelDrive
}

// Fetch lists the folder and converts every supported file to text. Files
// that cannot be read are reported as skipped; only a listing failure is
// returned as an error.
func (s *Source) Fetch(ctx context.Context) ([]source.Document, []source.Skipped, error) {
	if s.folderID == "" {
		return nil, nil, ErrNoFolder
	}
	files, err := s.list(ctx)
	if err != nil {
		return nil, nil, err
	}

	var docs []source.Document
	var skipped []source.Skipped
	for _, f := range files {
		text, reason, err := s.fileText(ctx, f)
		if err != nil {
			s.logger.Warn("drive file read failed", "file_id", f.Id, "name", f.Name, "error", err)
			skipped = append(skipped, source.Skipped{ID: f.Id, Name: f.Name, Reason: err.Error()})
			continue
		}
		if reason != "" {
			skipped = append(skipped, source.Skipped{ID: f.Id, Name: f.Name, Reason: reason})
			continue
		}
		docs = append(docs, source.Document{
			ID:     f.Id,
			Name:   f.Name,
			Source: source.LabelDrive,
			Text:   text,
		})
	}
	return docs, skipped, nil
}

func (s *Source) list(ctx context.Context) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(s.folderID, "'", `\'`))

	var files []*drive.File
	pageToken := ""
	for {
		call := s.svc.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(pageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive folder failed: %w", classify(err))
		}
		files = append(files, resp.Files...)
		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

// fileText returns the file's text, or a non-empty skip reason for files
// that are not indexed.
func (s *Source) fileText(ctx context.Context, f *drive.File) (string, string, error) {
	var text string
	switch {
	case f.MimeType == MimeTypeFolder:
		return "", "folder", nil
	case f.MimeType == MimeTypeGoogleDoc, f.MimeType == MimeTypeGoogleSlides:
		resp, err := s.svc.Files.Export(f.Id, exportMimeText).Context(ctx).Download()
		if err != nil {
			return "", "", fmt.Errorf("export file failed: %w", classify(err))
		}
		text, err = readLimited(resp)
		if err != nil {
			return "", "", err
		}
	case f.MimeType == MimeTypePDF:
		resp, err := s.download(ctx, f)
		if err != nil {
			return "", "", err
		}
		defer resp.Body.Close()
		text, err = pdfextract.ExtractText(resp.Body, MaxDownloadSize)
		if err != nil {
			return "", "", err
		}
	case isTextFile(f.MimeType):
		resp, err := s.download(ctx, f)
		if err != nil {
			return "", "", err
		}
		text, err = readLimited(resp)
		if err != nil {
			return "", "", err
		}
	default:
		return "", "unsupported mime type " + f.MimeType, nil
	}

	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "no extractable text", nil
	}
	return text, "", nil
}

func (s *Source) download(ctx context.Context, f *drive.File) (*http.Response, error) {
	if f.Size > MaxDownloadSize {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", f.Size, MaxDownloadSize)
	}
	resp, err := s.svc.Files.Get(f.Id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file failed: %w", classify(err))
	}
	return resp, nil
}

func readLimited(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize))
	if err != nil {
		return "", fmt.Errorf("read file content failed: %w", err)
	}
	return string(data), nil
}

func isTextFile(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}

// classify maps Google API status codes onto the package sentinels while
// keeping the original error in the chain.
func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return errors.Join(ErrUnauthorized, err)
	case http.StatusForbidden:
		return errors.Join(ErrForbidden, err)
	case http.StatusNotFound:
		return errors.Join(ErrNotFound, err)
	case http.StatusTooManyRequests:
		return errors.Join(ErrRateLimited, err)
	}
	return err
}
