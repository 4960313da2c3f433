package logger

import "go.uber.org/zap"

// S devuelve la variante sugared del logger global, para logs printf-style
// en código de arranque y CLIs:
//
//	logger.S().Infof("listening on %s", addr)
func S() *zap.SugaredLogger {
	return L().Sugar()
}
