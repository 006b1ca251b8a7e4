package stack

import (
	"fmt"
	"runtime"
	"strings"
)

const maxFrames = 16

// stackError 包装原始错误并记录调用栈（wrap时采集，Error()时格式化）。
type stackError struct {
	err error
	pcs []uintptr
}

// New 采集当前调用栈并包装 err；skip 为跳过的栈帧数。
func New(err error, skip int) error {
	if err == nil {
		return nil
	}
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	return &stackError{err: err, pcs: pcs[:n]}
}

func (e *stackError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.err.Error())
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		if f.Function == "" {
			break
		}
		sb.WriteString(fmt.Sprintf(" -> [%s:%d %s]", trimPath(f.File), f.Line, trimFunc(f.Function)))
		if !more {
			break
		}
	}
	return sb.String()
}

func (e *stackError) Unwrap() error { return e.err }

// 只保留最后两级路径，日志里不至于太长
func trimPath(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return p
	}
	idx = strings.LastIndex(p[:idx], "/")
	if idx <= 0 {
		return p
	}
	return p[idx+1:]
}

func trimFunc(fn string) string {
	if idx := strings.LastIndex(fn, "/"); idx >= 0 {
		return fn[idx+1:]
	}
	return fn
}
