package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"go-permit/internal/shared/apperror"
)

// Store uploads binary payloads to the external file store and returns a
// publicly reachable URL. Callers treat failures as degradable: the
// attachment is simply left empty.
//
//go:generate mockgen -source=blob_store.go -destination=mock/blob_store_mock.go -package=mock
type Store interface {
	Store(ctx context.Context, data []byte, mimeHint, destination string) (string, error)
}

type httpStore struct {
	uploadURL string
	client    *http.Client
	logger    *zap.Logger
}

func NewHTTPStore(uploadURL string, logger ...*zap.Logger) Store {
	l := zap.L().Named("blob.store")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("blob.store")
	}
	return &httpStore{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    l,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *httpStore) Store(ctx context.Context, data []byte, mimeHint, destination string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("folder", destination); err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob upload failed", http.StatusServiceUnavailable)
	}
	part, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob upload failed", http.StatusServiceUnavailable)
	}
	if _, err := part.Write(data); err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob upload failed", http.StatusServiceUnavailable)
	}
	if err := mw.Close(); err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob upload failed", http.StatusServiceUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &body)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob upload failed", http.StatusServiceUnavailable)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if mimeHint != "" {
		req.Header.Set("X-Content-Hint", mimeHint)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeServiceUnavailable, "blob store unreachable", http.StatusServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("blob upload rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return "", apperror.New(
			apperror.CodeServiceUnavailable,
			fmt.Sprintf("blob store returned status %d", resp.StatusCode),
			http.StatusServiceUnavailable,
		)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.URL == "" {
		return "", apperror.New(apperror.CodeServiceUnavailable, "blob store returned no url", http.StatusServiceUnavailable)
	}
	return out.URL, nil
}
