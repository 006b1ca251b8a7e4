package song

import (
	songmodel "MProject/module/song/model"
	errs "MProject/tools/errs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func listSongs(c *gin.Context, pipeline interface{}) ([]songmodel.Song, error) {
	s := songmodel.Song{}
	cur, err := s.Collection().Aggregate(c.Request.Context(), pipeline)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(c.Request.Context()) }()

	songs := []songmodel.Song{}
	if err := cur.All(c.Request.Context(), &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// HandlerListAll 全量歌曲（管理端，按创建时间倒序）
func HandlerListAll(c *gin.Context) {
	s := songmodel.Song{}
	cur, err := s.Collection().Find(c.Request.Context(), bson.M{},
		options.Find().SetSort(bson.D{{Key: "create_time", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	defer func() { _ = cur.Close(c.Request.Context()) }()

	songs := []songmodel.Song{}
	if err := cur.All(c.Request.Context(), &songs); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, songs)
}

// HandlerFeatured 首页精选：随机取 6 首
func HandlerFeatured(c *gin.Context) {
	songs, err := listSongs(c, bson.A{bson.M{"$sample": bson.M{"size": 6}}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, songs)
}

// HandlerMadeForYou 随机取 4 首
func HandlerMadeForYou(c *gin.Context) {
	songs, err := listSongs(c, bson.A{bson.M{"$sample": bson.M{"size": 4}}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, songs)
}

// HandlerTrending 随机取 4 首
func HandlerTrending(c *gin.Context) {
	songs, err := listSongs(c, bson.A{bson.M{"$sample": bson.M{"size": 4}}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, songs)
}
