package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxTestKitSize     = 10 << 20
	testKitContentType = "application/pdf"
)

var (
	ErrTestKitEmpty    = errors.New("test kit file is empty")
	ErrTestKitTooLarge = errors.New("test kit file exceeds 10 MB")
	ErrTestKitNotPDF   = errors.New("test kit file must be a PDF")
	ErrStorageDisabled = errors.New("test kit storage is not configured")
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectStore stores uploaded objects and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type TestKitService interface {
	Check(content []byte) error
	Store(ctx context.Context, userID, filename string, content []byte) (*TestKitFile, error)
}

type testKitService struct {
	log   *logrus.Logger
	store ObjectStore
}

// NewTestKitService returns a service backed by store; a nil store rejects
// every upload with ErrStorageDisabled.
func NewTestKitService(log *logrus.Logger, store ObjectStore) TestKitService {
	return &testKitService{log: log, store: store}
}

// Check reports whether content can be stored, without uploading it.
func (s *testKitService) Check(content []byte) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	switch {
	case len(content) == 0:
		return ErrTestKitEmpty
	case len(content) > MaxTestKitSize:
		return ErrTestKitTooLarge
	case !bytes.HasPrefix(content, []byte("%PDF-")):
		return ErrTestKitNotPDF
	}
	return nil
}

// Store checks that content is a PDF and uploads it under
// <user>_<name>_<8 hex>.pdf.
func (s *testKitService) Store(ctx context.Context, userID, filename string, content []byte) (*TestKitFile, error) {
	if err := s.Check(content); err != nil {
		return nil, err
	}

	key := TestKitObjectKey(userID, filename)
	url, err := s.store.Upload(ctx, key, testKitContentType, content)
	if err != nil {
		return nil, fmt.Errorf("upload test kit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"key":     key,
		"size":    len(content),
	}).Info("Test kit result uploaded")

	return &TestKitFile{URL: url, Filename: filepath.Base(filename)}, nil
}

// TestKitObjectKey builds the object key for an uploaded result.
func TestKitObjectKey(userID, filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "result"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s.pdf", userID, name, suffix)
}
