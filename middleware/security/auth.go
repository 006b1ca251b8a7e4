package security

import (
	errs "MProject/tools/errs"
	sec "MProject/tools/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续模块统一用这俩 key 读取
const (
	MCtxUserIDKey = "ctxUserId"  // string
	MCtxIsAdmin   = "ctxIsAdmin" // bool
)

type Options struct {
	Secret      []byte // HMAC 密钥
	AdminUserID string // 管理员用户ID（上传/删除歌曲等接口校验）

	EnableAuthorizationBearer bool // 默认 true，兼容 Authorization: Bearer xxx
}

func DefaultOptions(secret []byte, adminUserID string) *Options {
	return &Options{
		Secret:                    secret,
		AdminUserID:               adminUserID,
		EnableAuthorizationBearer: true,
	}
}

// ExtractBearer 从请求头/查询串里取 token（ws 握手用 query 传）
func ExtractBearer(c *gin.Context, enableBearer bool) string {
	token := strings.TrimSpace(c.GetHeader("authorization"))
	if token == "" && enableBearer {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if token == "" {
		token = strings.TrimSpace(c.Query("token"))
	}
	return token
}

// Middleware 校验 JWT 并把 userId 写入 gin context
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c, opts.EnableAuthorizationBearer)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(sec.DefaultOptions(opts.Secret), token, "")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired.WithDetail(err.Error()))
			return
		}
		userID, _ := claims.MapClaims["sub"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		c.Set(MCtxUserIDKey, userID)
		c.Set(MCtxIsAdmin, userID == opts.AdminUserID)
		c.Next()
	}
}

// RequireAdmin 必须先过 Middleware
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, ok := c.Get(MCtxIsAdmin); !ok || isAdmin != true {
			c.AbortWithStatusJSON(http.StatusForbidden, errs.ErrNoPermission)
			return
		}
		c.Next()
	}
}

// CurrentUserID 读取已校验的 userId；没有则空串
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(MCtxUserIDKey)
	s, _ := v.(string)
	return s
}

// VerifyToken ws 握手前用：只验 token，返回 userId
func VerifyToken(secret []byte, token string) (string, error) {
	claims, err := sec.Verify(sec.DefaultOptions(secret), token, "")
	if err != nil {
		return "", err
	}
	userID, _ := claims.MapClaims["sub"].(string)
	if userID == "" {
		return "", errs.ErrTokenInvalid.Wrap()
	}
	return userID, nil
}
