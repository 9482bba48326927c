// Package storage keeps uploaded point images on local disk or in an S3 bucket.
package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"ecoleta/internal/config"
)

// Store saves an image and hands back the reference persisted on the point.
type Store interface {
	Save(ctx context.Context, name string, body io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// New picks the S3 backend when it is configured, local disk otherwise.
func New(cfg config.Config) (Store, error) {
	if cfg.S3.Enabled() {
		return NewS3(cfg.S3), nil
	}
	return NewDisk(cfg.UploadDir, cfg.BaseURL+"/uploads")
}

// ObjectName builds "<hash>-<nonce>-<name>". The nonce makes every upload its
// own object, so deleting one never removes a file another point references.
func ObjectName(original string, content []byte) string {
	sum := blake2b.Sum256(content)
	nonce := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return hex.EncodeToString(sum[:6]) + "-" + nonce + "-" + sanitize(original)
}

func sanitize(name string) string {
	name = strings.ToLower(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "image"
	}
	return out
}

func readAll(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
