package types

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrbRecordIsValid(t *testing.T) {
	rec := NewOrbRecord("first light")

	require.NoError(t, rec.Validate())
	assert.Equal(t, DefaultOrbColor, rec.Color)
	assert.False(t, rec.HasContent(), "新记录不应有内容")
}

func TestOrbRecordContentFlags(t *testing.T) {
	rec := NewOrbRecord("media")
	rec.ImagePath = "/tmp/a.png"
	assert.True(t, rec.HasImage())
	assert.False(t, rec.HasVideo())
	assert.True(t, rec.HasContent())

	rec = NewOrbRecord("words")
	rec.Text = "   "
	assert.False(t, rec.HasText(), "纯空白文字不算内容")
	rec.Text = "hello"
	assert.True(t, rec.HasContent())
}

func TestOrbRecordValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OrbRecord)
	}{
		{"缺少ID", func(r *OrbRecord) { r.ID = "" }},
		{"ID不是UUID", func(r *OrbRecord) { r.ID = "orb-1" }},
		{"缺少名称", func(r *OrbRecord) { r.Name = " " }},
		{"颜色非法", func(r *OrbRecord) { r.Color = "#12" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewOrbRecord("x")
			tt.mutate(&rec)
			assert.Error(t, rec.Validate())
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = ParseColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)

	rec := OrbRecord{Color: "bogus"}
	def, _ := ParseColor(DefaultOrbColor)
	assert.Equal(t, def, rec.RGBA(), "非法颜色退回默认颜色")
}
