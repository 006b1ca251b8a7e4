package errs

// 业务错误码：1xxx 通用，12xx 消息，15xx 令牌
const (
	ServerInternalError = 500

	ArgsError           = 1001
	RecordNotFoundError = 1002
	DuplicateKeyError   = 1003

	MessagePersistError = 1201
	MessageQueryError   = 1202

	TokenExpiredError = 1501
	TokenInvalidError = 1503
	NoPermissionError = 1504
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")

	ErrMessagePersist = NewCodeError(MessagePersistError, "MessagePersistError")
	ErrMessageQuery   = NewCodeError(MessageQueryError, "MessageQueryError")

	ErrTokenExpired = NewCodeError(TokenExpiredError, "TokenExpiredError")
	ErrTokenInvalid = NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrNoPermission = NewCodeError(NoPermissionError, "NoPermissionError")
)
