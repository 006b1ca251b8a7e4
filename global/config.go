package global

import (
	"MProject/data/database/mgo/mongoutil"
	mgoSrv "MProject/service/mgo"
	storage "MProject/service/storage"
	redis "MProject/service/storage/redis"
	ids "MProject/tools/ids"
	"context"
	"os"
	"time"

	"github.com/golang/glog"
)

func ConfigAll() {
	ConfigIds()
	ConfigRedis()
	ConfigMgo()
	ConfigMirror()
}

func ConfigIds() {
	ids.SetNodeID(100)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetJwtSecret() []byte {
	// 开发默认值；线上通过 M_JWT_SECRET 注入
	return []byte(env("M_JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="))
}

func GetAdminUserID() string {
	return env("M_ADMIN_USER_ID", "admin_001")
}

func GetHTTPAddr() string {
	return env("M_HTTP_ADDR", ":3000")
}

func GetAllowOrigin() string {
	return env("M_ALLOW_ORIGIN", "http://localhost:3000")
}

func GetMediaDir() string {
	return env("M_MEDIA_DIR", "./media")
}

func GetTmpDir() string {
	return env("M_TMP_DIR", "./tmp")
}

func ConfigRedis() {
	config := redis.Config{
		Addr: env("M_REDIS_ADDR", "127.0.0.1:6379"), Password: env("M_REDIS_PASSWORD", ""), DB: 0,
	}
	if err := redis.InitRedis(config); err != nil {
		// redis 只承载在线镜像，连不上降级运行
		glog.Infof("[Redis] init failed, presence mirror degraded: %v", err)
		return
	}
}

func ConfigMirror() {
	storage.InitMirror(storage.MirrorConfig{TTL: 2 * time.Hour})
}

func ConfigMgo() {
	ctx, cancel := context.WithCancel(context.Background())
	_ = cancel // 进程生命周期内不主动断开

	cfg := &mongoutil.Config{
		Uri:         env("M_MONGO_URI", "mongodb://localhost:27017"),
		Database:    env("M_MONGO_DB", "musicRelay"),
		MaxPoolSize: 20,
		Username:    env("M_MONGO_USER", ""),
		Password:    env("M_MONGO_PASSWORD", ""),
		MaxRetry:    3,
	}

	// 异步启动，首连成功后自动健康检查/重连
	mgoSrv.StartAsync(ctx, cfg)
	glog.Infof("[Mongo] async connect started uri=%s db=%s", cfg.Uri, cfg.Database)
}
