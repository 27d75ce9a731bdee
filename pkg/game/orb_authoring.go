package game

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/types"
)

// ErrNothingToSave 光球没有任何内容时不允许保存
var ErrNothingToSave = errors.New("orb has no text, image or video")

// 支持的媒体扩展名
var (
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
	videoExtensions = map[string]bool{".mp4": true}
)

// Uploader 把光球内容发送到后端
type Uploader interface {
	Upload(ctx context.Context, rec types.OrbRecord) error
}

// OrbAuthoring 光球内容编辑流程
//
// 编辑光球实体持有的 OrbRecord：设置文字、图片、视频，
// 有任意内容时允许保存到内容库，并可上传到后端。
type OrbAuthoring struct {
	record   *types.OrbRecord
	store    OrbStore
	uploader Uploader
	logger   *zap.Logger
}

// NewOrbAuthoring 创建编辑流程
//
// store 和 uploader 可为 nil，对应操作会返回错误。
func NewOrbAuthoring(record *types.OrbRecord, store OrbStore, uploader Uploader, logger *zap.Logger) *OrbAuthoring {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrbAuthoring{
		record:   record,
		store:    store,
		uploader: uploader,
		logger:   logger.Named("authoring"),
	}
}

// Record 当前记录的副本
func (a *OrbAuthoring) Record() types.OrbRecord {
	return *a.record
}

// SetText 设置文字
func (a *OrbAuthoring) SetText(text string) {
	a.record.Text = text
}

// SetImage 设置图片（png/jpg），空路径表示清除
func (a *OrbAuthoring) SetImage(path string) error {
	if path == "" {
		a.record.ImagePath = ""
		return nil
	}
	if err := checkMedia(path, imageExtensions); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	a.record.ImagePath = path
	a.logger.Debug("image set", zap.String("orb", a.record.ID), zap.String("path", path))
	return nil
}

// SetVideo 设置视频（mp4），空路径表示清除
func (a *OrbAuthoring) SetVideo(path string) error {
	if path == "" {
		a.record.VideoPath = ""
		return nil
	}
	if err := checkMedia(path, videoExtensions); err != nil {
		return fmt.Errorf("failed to set video: %w", err)
	}
	a.record.VideoPath = path
	a.logger.Debug("video set", zap.String("orb", a.record.ID), zap.String("path", path))
	return nil
}

// CanSave 是否允许保存
func (a *OrbAuthoring) CanSave() bool {
	return a.record.HasContent()
}

// Save 保存到内容库
func (a *OrbAuthoring) Save(ctx context.Context) error {
	if !a.CanSave() {
		return ErrNothingToSave
	}
	if a.store == nil {
		return fmt.Errorf("failed to save orb %s: no orb store configured", a.record.ID)
	}
	if err := a.store.Save(ctx, *a.record); err != nil {
		return err
	}
	a.logger.Info("orb saved", zap.String("orb", a.record.ID))
	return nil
}

// Upload 上传到后端
func (a *OrbAuthoring) Upload(ctx context.Context) error {
	if !a.CanSave() {
		return ErrNothingToSave
	}
	if a.uploader == nil {
		return fmt.Errorf("failed to upload orb %s: no uploader configured", a.record.ID)
	}
	if err := a.uploader.Upload(ctx, *a.record); err != nil {
		return fmt.Errorf("failed to upload orb %s: %w", a.record.ID, err)
	}
	a.logger.Info("orb uploaded", zap.String("orb", a.record.ID))
	return nil
}

func checkMedia(path string, allowed map[string]bool) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowed[ext] {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
