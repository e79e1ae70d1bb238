// Package manifest 维护一份 sqlite 构建清单：每个已编译资源一行，
// 记录逻辑路径、digest、类型与大小，供诊断端与离线排查使用。
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// ErrNotFound 表示清单中不存在对应条目。
var ErrNotFound = errors.New("manifest entry not found")

// Entry 描述一次构建的产物信息。
type Entry struct {
	Mount       string    `json:"mount"`
	LogicalPath string    `json:"logical_path"`
	Digest      string    `json:"digest"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	BuiltAt     time.Time `json:"built_at"`
}

// Store 包装 sqlite 连接；Record/Lookup/List 均可并发调用。
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）manifest 数据库并确保表结构存在。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("manifest path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		mount TEXT NOT NULL,
		logical_path TEXT NOT NULL,
		digest TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		built_at INTEGER NOT NULL,
		PRIMARY KEY (mount, logical_path)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create builds table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record 写入或覆盖一条构建记录。
func (s *Store) Record(ctx context.Context, entry Entry) error {
	builtAt := entry.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (mount, logical_path, digest, content_type, size_bytes, built_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (mount, logical_path) DO UPDATE SET
		 digest = excluded.digest,
		 content_type = excluded.content_type,
		 size_bytes = excluded.size_bytes,
		 built_at = excluded.built_at`,
		entry.Mount, entry.LogicalPath, entry.Digest, entry.ContentType, entry.SizeBytes, builtAt.Unix())
	return err
}

// Lookup 返回指定挂载点 + 逻辑路径的最近一次构建记录。
func (s *Store) Lookup(ctx context.Context, mount, logicalPath string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mount, logical_path, digest, content_type, size_bytes, built_at
		 FROM builds WHERE mount = ? AND logical_path = ?`,
		mount, logicalPath)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List 返回指定挂载点的全部构建记录，按逻辑路径排序。
func (s *Store) List(ctx context.Context, mount string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mount, logical_path, digest, content_type, size_bytes, built_at
		 FROM builds WHERE mount = ? ORDER BY logical_path`,
		mount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	return s.db.Close()
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var entry Entry
	var builtAt int64
	if err := scan(&entry.Mount, &entry.LogicalPath, &entry.Digest, &entry.ContentType, &entry.SizeBytes, &builtAt); err != nil {
		return nil, err
	}
	entry.BuiltAt = time.Unix(builtAt, 0).UTC()
	return &entry, nil
}
