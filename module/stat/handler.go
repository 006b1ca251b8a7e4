package stat

import (
	database "MProject/data/database"
	albummodel "MProject/module/album/model"
	songmodel "MProject/module/song/model"
	usermodel "MProject/module/user/model"
	errs "MProject/tools/errs"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func countAll(ctx context.Context, t database.Table) (int64, error) {
	return t.Collection().CountDocuments(ctx, bson.M{})
}

// HandlerStats 总量统计：歌曲/专辑/用户数 + 去重后的艺术家数（songs ∪ albums）
func HandlerStats(c *gin.Context) {
	ctx := c.Request.Context()

	s := songmodel.Song{}
	a := albummodel.Album{}
	u := usermodel.User{}

	totalSongs, err := countAll(ctx, &s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	totalAlbums, err := countAll(ctx, &a)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	totalUsers, err := countAll(ctx, &u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}

	// $unionWith songs+albums 后按 artist 去重计数
	pipeline := bson.A{
		bson.M{"$unionWith": bson.M{"coll": a.GetTableName(), "pipeline": bson.A{bson.M{"$project": bson.M{"artist": 1}}}}},
		bson.M{"$group": bson.M{"_id": "$artist"}},
		bson.M{"$count": "count"},
	}
	cur, err := s.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	defer func() { _ = cur.Close(ctx) }()

	totalArtists := int64(0)
	if cur.Next(ctx) {
		var row struct {
			Count int64 `bson:"count"`
		}
		if err := cur.Decode(&row); err == nil {
			totalArtists = row.Count
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalSongs":   totalSongs,
		"totalAlbums":  totalAlbums,
		"totalUsers":   totalUsers,
		"totalArtists": totalArtists,
	})
}
