package auth

import (
	usermodel "MProject/module/user/model"
	errs "MProject/tools/errs"
	sec "MProject/tools/security"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var jwtSecret []byte

// Config 注入签发密钥（main 启动时调用一次）
func Config(secret []byte) { jwtSecret = secret }

type callbackReq struct {
	UserID    string `json:"userId" binding:"required"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// HandlerCallback 登录回调：upsert 用户主档并签发访问令牌。
// 凭证校验在外部认证方完成，这里信任回调身份（与 relay 的信任边界一致）。
func HandlerCallback(c *gin.Context) {
	var req callbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	now := time.Now()
	u := usermodel.User{}
	_, err := u.Collection().UpdateOne(c.Request.Context(),
		bson.M{"user_id": req.UserID},
		bson.M{
			"$set": bson.M{
				"full_name":   req.FullName,
				"avatar_url":  req.AvatarURL,
				"update_time": now,
			},
			"$setOnInsert": bson.M{
				"user_id":     req.UserID,
				"create_time": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}

	token, _, expireAt, err := sec.Generate(sec.DefaultOptions(jwtSecret), req.UserID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": expireAt.UnixMilli(),
		"user": gin.H{
			"id":        req.UserID,
			"fullName":  req.FullName,
			"avatarUrl": req.AvatarURL,
		},
	})
}
