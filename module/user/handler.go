package user

import (
	midsec "MProject/middleware/security"
	msgstore "MProject/module/chat/message"
	usermodel "MProject/module/user/model"
	mgo "MProject/service/mgo"
	storage "MProject/service/storage"
	errs "MProject/tools/errs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// HandlerListUsers 返回除自己以外的所有用户（私信联系人列表）
func HandlerListUsers(c *gin.Context) {
	me := midsec.CurrentUserID(c)

	u := usermodel.User{}
	cur, err := u.Collection().Find(c.Request.Context(), bson.M{"user_id": bson.M{"$ne": me}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	defer func() { _ = cur.Close(c.Request.Context()) }()

	users := []usermodel.User{}
	if err := cur.All(c.Request.Context(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandlerMessages 拉取我和某人的会话历史（离线消息只能从这里补，relay 不重投）
func HandlerMessages(c *gin.Context) {
	me := midsec.CurrentUserID(c)
	other := c.Param("userId")
	if other == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs)
		return
	}

	store := msgstore.NewStore(mgo.GetDB())
	msgs, err := store.ListByConversation(c.Request.Context(), me, other)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrMessageQuery.WithDetail(err.Error()))
		return
	}
	if msgs == nil {
		msgs = []*msgstore.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// HandlerOnlineUsers 在线用户（读 redis 镜像，展示用，允许轻微滞后）
func HandlerOnlineUsers(c *gin.Context) {
	users, err := storage.GetMirror().OnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, users)
}
