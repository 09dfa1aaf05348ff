package xlog

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Field         = zap.Field
	ObjectEncoder = zapcore.ObjectEncoder
)

func String(key, val string) Field { return zap.String(key, val) }
func Strings(key string, val []string) Field { return zap.Strings(key, val) }
func Int(key string, val int) Field { return zap.Int(key, val) }
func Int32(key string, val int32) Field { return zap.Int32(key, val) }
func Int64(key string, val int64) Field { return zap.Int64(key, val) }
func Uint(key string, val uint) Field { return zap.Uint(key, val) }
func Bool(key string, val bool) Field { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) Field { return zap.Time(key, val) }
func Any(key string, val any) Field { return zap.Any(key, val) }
func Stringer(key string, val interface{ String() string }) Field {
	return zap.Stringer(key, val)
}

func Err(err error) Field { return zap.Error(err) }

func Object(key string, val zapcore.ObjectMarshaler) Field { return zap.Object(key, val) }
