package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/decker502/orbgallery/pkg/types"
)

// 存储路径常量
const (
	orbObject     = "orbs"
	orbIndexProp  = "index"
	orbPropPrefix = "orb_"
)

// OrbLibrary 基于 gdata 的光球内容库
//
// 每条记录以 YAML 保存为 orbs/orb_<id>，orbs/index 保存全部 ID。
// gdataManager 为 nil 时进入降级模式：只保存在内存中。
type OrbLibrary struct {
	mu           sync.Mutex
	gdataManager *gdata.Manager
	memory       map[string]types.OrbRecord // 降级模式下的存储
	logger       *zap.Logger
}

// NewOrbLibrary 创建内容库
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存）
//   - logger: 可为 nil
func NewOrbLibrary(gdataManager *gdata.Manager, logger *zap.Logger) *OrbLibrary {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib := &OrbLibrary{
		gdataManager: gdataManager,
		memory:       make(map[string]types.OrbRecord),
		logger:       logger.Named("orb-library"),
	}
	if gdataManager == nil {
		lib.logger.Warn("no gdata manager, orb library is memory-only")
	}
	return lib
}

// OpenOrbLibrary 打开应用 appName 的数据目录
func OpenOrbLibrary(appName string, logger *zap.Logger) (*OrbLibrary, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata for %q: %w", appName, err)
	}
	return NewOrbLibrary(m, logger), nil
}

// Persistent 是否真正持久化
func (l *OrbLibrary) Persistent() bool {
	return l.gdataManager != nil
}

// Save 保存（新增或覆盖）一条记录
func (l *OrbLibrary) Save(ctx context.Context, rec types.OrbRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("failed to save orb: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gdataManager == nil {
		l.memory[rec.ID] = rec
		return nil
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal orb: %w", err)
	}
	if err := l.gdataManager.SaveObjectProp(orbObject, orbPropPrefix+rec.ID, data); err != nil {
		return fmt.Errorf("failed to save orb: %w", err)
	}

	ids, err := l.loadIndex()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == rec.ID {
			return nil
		}
	}
	if err := l.saveIndex(append(ids, rec.ID)); err != nil {
		return err
	}

	l.logger.Info("orb saved", zap.String("id", rec.ID), zap.String("name", rec.Name))
	return nil
}

// Get 读取一条记录
func (l *OrbLibrary) Get(ctx context.Context, id string) (types.OrbRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.OrbRecord{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(id)
}

func (l *OrbLibrary) get(id string) (types.OrbRecord, error) {
	if l.gdataManager == nil {
		rec, ok := l.memory[id]
		if !ok {
			return types.OrbRecord{}, ErrOrbNotFound
		}
		return rec, nil
	}

	prop := orbPropPrefix + id
	if !l.gdataManager.ObjectPropExists(orbObject, prop) {
		return types.OrbRecord{}, ErrOrbNotFound
	}
	data, err := l.gdataManager.LoadObjectProp(orbObject, prop)
	if err != nil {
		return types.OrbRecord{}, fmt.Errorf("failed to load orb %s: %w", id, err)
	}
	if len(data) == 0 {
		return types.OrbRecord{}, ErrOrbNotFound
	}
	var rec types.OrbRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return types.OrbRecord{}, fmt.Errorf("failed to unmarshal orb %s: %w", id, err)
	}
	return rec, nil
}

// List 列出全部记录
func (l *OrbLibrary) List(ctx context.Context) ([]types.OrbRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []types.OrbRecord
	if l.gdataManager == nil {
		for _, rec := range l.memory {
			out = append(out, rec)
		}
	} else {
		ids, err := l.loadIndex()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			rec, err := l.get(id)
			if err != nil {
				// 索引和数据不一致时跳过该条
				l.logger.Warn("skipping unreadable orb", zap.String("id", id), zap.Error(err))
				continue
			}
			out = append(out, rec)
		}
	}

	sortRecords(out)
	return out, nil
}

// Delete 从索引中移除记录
//
// gdata 没有删除单个属性的接口，记录数据保留在磁盘上，但不再出现在 List/Get 中。
func (l *OrbLibrary) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gdataManager == nil {
		if _, ok := l.memory[id]; !ok {
			return ErrOrbNotFound
		}
		delete(l.memory, id)
		return nil
	}

	ids, err := l.loadIndex()
	if err != nil {
		return err
	}
	kept := ids[:0]
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return ErrOrbNotFound
	}
	if err := l.saveIndex(kept); err != nil {
		return err
	}
	// 覆盖为空数据，Get 视为不存在
	if err := l.gdataManager.SaveObjectProp(orbObject, orbPropPrefix+id, []byte{}); err != nil {
		return fmt.Errorf("failed to clear orb %s: %w", id, err)
	}

	l.logger.Info("orb deleted", zap.String("id", id))
	return nil
}

// Close gdata 没有需要释放的资源
func (l *OrbLibrary) Close() error {
	return nil
}

func (l *OrbLibrary) loadIndex() ([]string, error) {
	if !l.gdataManager.ObjectPropExists(orbObject, orbIndexProp) {
		return nil, nil
	}
	data, err := l.gdataManager.LoadObjectProp(orbObject, orbIndexProp)
	if err != nil {
		return nil, fmt.Errorf("failed to load orb index: %w", err)
	}
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal orb index: %w", err)
	}
	return ids, nil
}

func (l *OrbLibrary) saveIndex(ids []string) error {
	data, err := yaml.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal orb index: %w", err)
	}
	if err := l.gdataManager.SaveObjectProp(orbObject, orbIndexProp, data); err != nil {
		return fmt.Errorf("failed to save orb index: %w", err)
	}
	return nil
}

// sortRecords 按名称、ID 排序
func sortRecords(recs []types.OrbRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Name != recs[j].Name {
			return recs[i].Name < recs[j].Name
		}
		return recs[i].ID < recs[j].ID
	})
}
