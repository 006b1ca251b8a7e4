package model

import (
	"time"

	mgo "MProject/service/mgo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Album 专辑主档；歌曲通过 song.album_id 反向关联。
type Album struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Artist      string             `bson:"artist" json:"artist"`
	ImageURL    string             `bson:"image_url" json:"imageUrl"`
	ReleaseYear int32              `bson:"release_year" json:"releaseYear"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (a *Album) GetTableName() string {
	return "albums"
}

func (a *Album) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(a.GetTableName())
}
