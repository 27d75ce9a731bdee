package game

import (
	"context"

	"github.com/decker502/orbgallery/pkg/types"
)

// ErrOrbNotFound 内容库中没有该光球
var ErrOrbNotFound = types.ErrOrbNotFound

// OrbStore 光球内容库
//
// 两种实现：OrbLibrary（gdata，本地用户数据目录）和 sqlite.Store（单文件归档）。
// List 按名称升序返回，名称相同按 ID 排序。
type OrbStore interface {
	Save(ctx context.Context, rec types.OrbRecord) error
	Get(ctx context.Context, id string) (types.OrbRecord, error)
	List(ctx context.Context) ([]types.OrbRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
