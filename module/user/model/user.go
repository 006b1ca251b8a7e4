package model

import (
	"time"

	mgo "MProject/service/mgo"

	"go.mongodb.org/mongo-driver/mongo"
)

// User 用户主档：身份由外部认证方（登录回调）给定，这里只存展示信息。
type User struct {
	UserID    string `bson:"user_id" json:"userId"` // 全局唯一、不可变（主键，来自认证方 subject）
	FullName  string `bson:"full_name" json:"fullName"`
	AvatarURL string `bson:"avatar_url" json:"avatarUrl"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (u *User) GetUserID() string { return u.UserID }

func (u *User) GetTableName() string {
	return "users"
}

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}
