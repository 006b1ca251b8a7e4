package album

import (
	albummodel "MProject/module/album/model"
	songmodel "MProject/module/song/model"
	errs "MProject/tools/errs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandlerListAll 全部专辑
func HandlerListAll(c *gin.Context) {
	a := albummodel.Album{}
	cur, err := a.Collection().Find(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	defer func() { _ = cur.Close(c.Request.Context()) }()

	albums := []albummodel.Album{}
	if err := cur.All(c.Request.Context(), &albums); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, albums)
}

// HandlerGetByID 专辑详情 + 专辑内歌曲
func HandlerGetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("albumId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid albumId"))
		return
	}

	a := albummodel.Album{}
	if err := a.Collection().FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&a); err != nil {
		c.JSON(http.StatusNotFound, errs.ErrRecordNotFound.WithDetail("album not found"))
		return
	}

	s := songmodel.Song{}
	cur, err := s.Collection().Find(c.Request.Context(), bson.M{"album_id": id})
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

	c.JSON(http.StatusOK, gin.H{
		"album": a,
		"songs": songs,
	})
}
