package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv 用 ORBGALLERY_* 环境变量覆盖配置，未设置的变量保持原值
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
