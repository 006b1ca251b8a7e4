package errs

import (
	"MProject/tools/errs/stack"
	"errors"
	"fmt"
	"strings"
)

type Error interface {
	Is(err error) bool
	Wrap() error
	WrapMsg(msg string, kv ...any) error
	error
}

// New 创建一个纯文本错误（无业务码），kv 拼接到消息后面。
func New(s string, kv ...any) Error {
	return &errorString{s: toString(s, kv)}
}

type errorString struct {
	s string
}

func (e *errorString) Is(err error) bool {
	if err == nil {
		return false
	}
	var t *errorString
	return errors.As(err, &t) && e.s == t.s
}

func (e *errorString) Error() string { return e.s }

func (e *errorString) Wrap() error { return stack.New(e, stackSkip) }

func (e *errorString) WrapMsg(msg string, kv ...any) error {
	return stack.New(NewErrorWrapper(e, toString(msg, kv)), stackSkip)
}

// errorWrapper 在原错误外再挂一段描述
type errorWrapper struct {
	err error
	msg string
}

func NewErrorWrapper(err error, msg string) error {
	return &errorWrapper{err: err, msg: msg}
}

func (e *errorWrapper) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *errorWrapper) Unwrap() error { return e.err }

// toString 把 msg 与 kv 对拼成 "msg, k1=v1, k2=v2"
func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			sb.WriteString("<missing>")
		}
	}
	return sb.String()
}
