package main

import (
	"MProject/global"
	"MProject/logger"
	mid "MProject/middleware"
	admin "MProject/module/admin"
	album "MProject/module/album"
	auth "MProject/module/auth"
	msgstore "MProject/module/chat/message"
	song "MProject/module/song"
	stat "MProject/module/stat"
	user "MProject/module/user"
	mgo "MProject/service/mgo"
	relay "MProject/service/relay"
	storage "MProject/service/storage"
	files "MProject/tools/files"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	global.ConfigAll()

	// 等 Mongo 首连（消息必须先落库才能投递，没有库 relay 不开门）
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mgo.WaitReady(ctx, mgo.Manager()); err != nil {
			logger.Errorf("[main] mongo not ready: %v", err)
			return
		}
	}

	store := msgstore.NewStore(mgo.GetDB())
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Warnf("[main] ensure message indexes: %v", err)
		}
		cancel()
	}

	// relay：presence 权威在进程内，redis 只做展示镜像
	gw := relay.NewGateway(store, storage.GetMirror())
	ws := relay.NewServer(gw, relay.ServerConf{Secret: global.GetJwtSecret()})

	mid.Config(global.GetJwtSecret(), global.GetAdminUserID())
	auth.Config(global.GetJwtSecret())

	media, err := storage.NewMediaStore(global.GetMediaDir(), "/media")
	if err != nil {
		logger.Errorf("[main] media store: %v", err)
		return
	}
	admin.Config(media)

	cleaner := files.StartTempCleaner(global.GetTmpDir(), time.Hour)
	defer cleaner.Stop()

	r := gin.Default()
	r.Use(mid.Origin(global.GetAllowOrigin()))
	r.MaxMultipartMemory = 10 << 20 // 10MB，与上传限制一致

	r.Static("/media", global.GetMediaDir())
	r.GET("/ws", ws.HandleWS)

	api := r.Group("/api")

	mid.POST(api, "/auth/callback", auth.HandlerCallback, mid.RouteOpt{})

	mid.GET(api, "/users", user.HandlerListUsers, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/users/online", user.HandlerOnlineUsers, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/users/messages/:userId", user.HandlerMessages, mid.RouteOpt{IsAuth: true})

	mid.GET(api, "/songs", song.HandlerListAll, mid.RouteOpt{IsAdmin: true})
	mid.GET(api, "/songs/featured", song.HandlerFeatured, mid.RouteOpt{})
	mid.GET(api, "/songs/made-for-you", song.HandlerMadeForYou, mid.RouteOpt{})
	mid.GET(api, "/songs/trending", song.HandlerTrending, mid.RouteOpt{})

	mid.GET(api, "/albums", album.HandlerListAll, mid.RouteOpt{})
	mid.GET(api, "/albums/:albumId", album.HandlerGetByID, mid.RouteOpt{})

	mid.GET(api, "/admin/check", admin.HandlerCheck, mid.RouteOpt{IsAdmin: true})
	mid.POST(api, "/admin/songs", admin.HandlerCreateSong, mid.RouteOpt{IsAdmin: true})
	mid.DELETE(api, "/admin/songs/:id", admin.HandlerDeleteSong, mid.RouteOpt{IsAdmin: true})
	mid.POST(api, "/admin/albums", admin.HandlerCreateAlbum, mid.RouteOpt{IsAdmin: true})
	mid.DELETE(api, "/admin/albums/:id", admin.HandlerDeleteAlbum, mid.RouteOpt{IsAdmin: true})

	mid.GET(api, "/stats", stat.HandlerStats, mid.RouteOpt{IsAdmin: true})

	addr := global.GetHTTPAddr()
	logger.Infof("[main] listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Errorf("[main] server exited: %v", err)
	}
}
