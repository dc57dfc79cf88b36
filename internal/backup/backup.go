// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup writes and reads zstd-compressed JSON snapshots of the local
// store.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/seatmaster/internal/model"
)

// Exporter is the store side of a backup.
type Exporter interface {
	ExportData(ctx context.Context) (*model.BackupData, error)
}

// Importer is the store side of a restore.
type Importer interface {
	ImportData(ctx context.Context, data *model.BackupData, full bool) error
}

// Backup exports st and writes it to w as zstd-compressed JSON.
func Backup(ctx context.Context, w io.Writer, st Exporter) (*model.BackupData, error) {
	data, err := st.ExportData(ctx)
	if err != nil {
		return nil, fmt.Errorf("export backup: %w", err)
	}
	if err := Write(w, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write encodes data to w.
func Write(w io.Writer, data *model.BackupData) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	return nil
}

// Read decodes a backup from r.
func Read(r io.Reader) (*model.BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &data, nil
}

// Restore reads a backup from r and imports it into st. With full set the
// store is replaced, otherwise the backup is integrated without deletes.
func Restore(ctx context.Context, r io.Reader, full bool, st Importer) (*model.BackupData, error) {
	data, err := Read(r)
	if err != nil {
		return nil, err
	}
	if err := st.ImportData(ctx, data, full); err != nil {
		return nil, fmt.Errorf("import backup: %w", err)
	}
	return data, nil
}

// Migrate copies everything from src into dst, replacing dst's contents.
func Migrate(ctx context.Context, src Exporter, dst Importer) (*model.BackupData, error) {
	data, err := src.ExportData(ctx)
	if err != nil {
		return nil, fmt.Errorf("export source: %w", err)
	}
	if err := dst.ImportData(ctx, data, true); err != nil {
		return nil, fmt.Errorf("import to target: %w", err)
	}
	return data, nil
}
