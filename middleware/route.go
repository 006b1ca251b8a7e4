package middleware

import (
	midsec "MProject/middleware/security"

	"github.com/gin-gonic/gin"
)

// 配置选项
type RouteOpt struct {
	IsAuth  bool
	IsAdmin bool
}

var authOpts *midsec.Options

// Config 注入鉴权参数（main 启动时调用一次）
func Config(secret []byte, adminUserID string) {
	authOpts = midsec.DefaultOptions(secret, adminUserID)
}

func chain(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	var hs []gin.HandlerFunc
	if opt.IsAuth || opt.IsAdmin {
		hs = append(hs, midsec.Middleware(authOpts))
	}
	if opt.IsAdmin {
		hs = append(hs, midsec.RequireAdmin())
	}
	return append(hs, handler)
}

// 封装 POST
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, chain(handler, opt)...)
}

// 封装 GET
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, chain(handler, opt)...)
}

// 封装 DELETE
func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.DELETE(path, chain(handler, opt)...)
}
