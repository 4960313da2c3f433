package logger

import "go.uber.org/zap"

// Helpers de campos con nombres fijos, para que "account_id" se escriba
// igual en todo el código y los logs se puedan filtrar por campo.

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }

// ─── Dominio ───

func AccountID(v string) zap.Field  { return zap.String("account_id", v) }
func TemplateID(v string) zap.Field { return zap.String("template_id", v) }
func Recipient(v string) zap.Field  { return zap.String("recipient", v) }
func LogID(v string) zap.Field      { return zap.String("log_id", v) }
func APIKeyID(v string) zap.Field   { return zap.String("api_key_id", v) }

// ─── Genéricos ───

func Component(v string) zap.Field      { return zap.String("component", v) }
func Err(err error) zap.Field           { return zap.Error(err) }
func Count(v int) zap.Field             { return zap.Int("count", v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
