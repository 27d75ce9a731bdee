package types

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/google/uuid"
)

// ErrOrbNotFound 在存储中找不到指定 ID 的光球记录
var ErrOrbNotFound = errors.New("orb record not found")

// DefaultOrbColor 未指定颜色时使用的光球颜色（淡蓝）
const DefaultOrbColor = "#8fd3ff"

// OrbRecord 光球承载的内容数据
//
// 由光球实体持有（OrbComponent.Record），只允许内容编辑流程（OrbAuthoring）修改，
// 随光球销毁。图片和视频以本地文件路径保存，展示时由投影仪加载。
type OrbRecord struct {
	ID        string `yaml:"id"`                  // 唯一标识（UUID）
	Name      string `yaml:"name"`                // 显示名称
	Text      string `yaml:"text,omitempty"`      // 用户输入的文字
	ImagePath string `yaml:"imagePath,omitempty"` // 图片文件路径（png/jpg）
	VideoPath string `yaml:"videoPath,omitempty"` // 视频文件路径（mp4）
	Color     string `yaml:"color,omitempty"`     // 光球颜色，#RRGGBB
}

// NewOrbRecord 创建带新 UUID 的光球记录
func NewOrbRecord(name string) OrbRecord {
	return OrbRecord{
		ID:    uuid.NewString(),
		Name:  name,
		Color: DefaultOrbColor,
	}
}

// HasImage 是否设置了图片
func (r OrbRecord) HasImage() bool {
	return strings.TrimSpace(r.ImagePath) != ""
}

// HasVideo 是否设置了视频
func (r OrbRecord) HasVideo() bool {
	return strings.TrimSpace(r.VideoPath) != ""
}

// HasText 是否输入了文字
func (r OrbRecord) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// HasContent 是否有任意可保存的内容
func (r OrbRecord) HasContent() bool {
	return r.HasImage() || r.HasVideo() || r.HasText()
}

// Validate 校验记录的必填字段
func (r OrbRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("orb id is required")
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("orb id %q is not a uuid: %w", r.ID, err)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("orb name is required")
	}
	if r.Color != "" {
		if _, err := ParseColor(r.Color); err != nil {
			return err
		}
	}
	return nil
}

// RGBA 返回光球颜色，解析失败时退回默认颜色
func (r OrbRecord) RGBA() color.RGBA {
	c, err := ParseColor(r.Color)
	if err != nil {
		c, _ = ParseColor(DefaultOrbColor)
	}
	return c
}

// ParseColor 解析 #RRGGBB 或 #RRGGBBAA 格式的颜色
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	c := color.RGBA{A: 0xff}
	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
