package model

import (
	"time"

	mgo "MProject/service/mgo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Song 歌曲主档；音频/封面是上传后落到媒体目录的URL。
type Song struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title    string              `bson:"title" json:"title"`
	Artist   string              `bson:"artist" json:"artist"`
	ImageURL string              `bson:"image_url" json:"imageUrl"`
	AudioURL string              `bson:"audio_url" json:"audioUrl"`
	Duration int32               `bson:"duration" json:"duration"` // 秒
	AlbumID  *primitive.ObjectID `bson:"album_id,omitempty" json:"albumId,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (s *Song) GetTableName() string {
	return "songs"
}

func (s *Song) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(s.GetTableName())
}
