// Package sqlite 单文件光球归档库
//
// 实现 game.OrbStore，用于导出/导入整套光球内容或在多台装置之间拷贝。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/decker502/orbgallery/pkg/game"
	"github.com/decker502/orbgallery/pkg/store/sqlite/migrations"
	"github.com/decker502/orbgallery/pkg/types"
)

// Store SQLite 光球归档库
type Store struct {
	sqlDB  *sql.DB
	logger *zap.Logger
}

var _ game.OrbStore = (*Store)(nil)

// Open 打开（必要时创建）归档库并执行迁移
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.Named("orb-archive")
	logger.Debug("archive opened", zap.String("path", path))
	return &Store{sqlDB: sqlDB, logger: logger}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save 新增或覆盖一条记录
func (s *Store) Save(ctx context.Context, rec types.OrbRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("save orb: %w", err)
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO orbs (id, name, text, image_path, video_path, color, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	text = excluded.text,
	image_path = excluded.image_path,
	video_path = excluded.video_path,
	color = excluded.color,
	updated_at = excluded.updated_at
`,
		rec.ID, rec.Name, rec.Text, rec.ImagePath, rec.VideoPath, rec.Color,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save orb %s: %w", rec.ID, err)
	}
	s.logger.Debug("orb archived", zap.String("id", rec.ID))
	return nil
}

// Get 读取一条记录
func (s *Store) Get(ctx context.Context, id string) (types.OrbRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.OrbRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return types.OrbRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, text, image_path, video_path, color
FROM orbs
WHERE id = ?
`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.OrbRecord{}, game.ErrOrbNotFound
	}
	if err != nil {
		return types.OrbRecord{}, fmt.Errorf("get orb %s: %w", id, err)
	}
	return rec, nil
}

// List 按名称、ID 升序列出全部记录
func (s *Store) List(ctx context.Context) ([]types.OrbRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, text, image_path, video_path, color
FROM orbs
ORDER BY name ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list orbs: %w", err)
	}
	defer rows.Close()

	var records []types.OrbRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orb: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orbs: %w", err)
	}
	return records, nil
}

// Delete 删除一条记录
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM orbs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete orb %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete orb %s: %w", id, err)
	}
	if n == 0 {
		return game.ErrOrbNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.OrbRecord, error) {
	var rec types.OrbRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Text, &rec.ImagePath, &rec.VideoPath, &rec.Color)
	return rec, err
}
