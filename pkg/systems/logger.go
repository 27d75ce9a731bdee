package systems

import "go.uber.org/zap"

// namedLogger 返回带系统名称的子 logger，nil 时返回空实现
func namedLogger(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}
