package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Save(_ context.Context, name string, body io.Reader) (string, error) {
	data, err := readAll(body)
	if err != nil {
		return "", err
	}
	ref := ObjectName(name, data)
	if err := os.WriteFile(filepath.Join(d.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return ref, nil
}

func (d *Disk) Delete(_ context.Context, ref string) error {
	if ref == "" || ref != filepath.Base(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return d.baseURL + "/" + ref
}
