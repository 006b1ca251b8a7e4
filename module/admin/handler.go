package admin

import (
	albummodel "MProject/module/album/model"
	songmodel "MProject/module/song/model"
	storage "MProject/service/storage"
	errs "MProject/tools/errs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var media *storage.MediaStore

// Config 注入媒体存储（main 启动时调用一次）
func Config(m *storage.MediaStore) { media = m }

// HandlerCheck 前端用来判断当前用户是不是管理员（能走到这儿说明已过 RequireAdmin）
func HandlerCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"admin": true})
}

// HandlerCreateSong multipart：audioFile + imageFile + title/artist/duration[/albumId]
func HandlerCreateSong(c *gin.Context) {
	audio, err := c.FormFile("audioFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("audioFile is required"))
		return
	}
	image, err := c.FormFile("imageFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("imageFile is required"))
		return
	}
	title := c.PostForm("title")
	artist := c.PostForm("artist")
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("title and artist are required"))
		return
	}
	duration, _ := strconv.Atoi(c.PostForm("duration"))

	audioURL, err := media.Save(c, audio)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	imageURL, err := media.Save(c, image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}

	now := time.Now()
	s := songmodel.Song{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Artist:     artist,
		ImageURL:   imageURL,
		AudioURL:   audioURL,
		Duration:   int32(duration),
		CreateTime: now,
		UpdateTime: now,
	}
	if albumID := c.PostForm("albumId"); albumID != "" {
		oid, err := primitive.ObjectIDFromHex(albumID)
		if err != nil {
			c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid albumId"))
			return
		}
		s.AlbumID = &oid
	}

	if _, err := s.Collection().InsertOne(c.Request.Context(), &s); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, s)
}

// HandlerDeleteSong 连同磁盘上的媒体文件一起删
func HandlerDeleteSong(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid song id"))
		return
	}

	s := songmodel.Song{}
	if err := s.Collection().FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&s); err != nil {
		c.JSON(http.StatusNotFound, errs.ErrRecordNotFound.WithDetail("song not found"))
		return
	}
	if _, err := s.Collection().DeleteOne(c.Request.Context(), bson.M{"_id": id}); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	_ = media.Remove(s.AudioURL)
	_ = media.Remove(s.ImageURL)

	c.JSON(http.StatusOK, gin.H{"deleted": id.Hex()})
}

// HandlerCreateAlbum multipart：imageFile + title/artist/releaseYear
func HandlerCreateAlbum(c *gin.Context) {
	image, err := c.FormFile("imageFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("imageFile is required"))
		return
	}
	title := c.PostForm("title")
	artist := c.PostForm("artist")
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("title and artist are required"))
		return
	}
	year, _ := strconv.Atoi(c.PostForm("releaseYear"))

	imageURL, err := media.Save(c, image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}

	now := time.Now()
	a := albummodel.Album{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Artist:      artist,
		ImageURL:    imageURL,
		ReleaseYear: int32(year),
		CreateTime:  now,
		UpdateTime:  now,
	}
	if _, err := a.Collection().InsertOne(c.Request.Context(), &a); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, a)
}

// HandlerDeleteAlbum 先删专辑内歌曲，再删专辑
func HandlerDeleteAlbum(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid album id"))
		return
	}

	s := songmodel.Song{}
	if _, err := s.Collection().DeleteMany(c.Request.Context(), bson.M{"album_id": id}); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	a := albummodel.Album{}
	if _, err := a.Collection().DeleteOne(c.Request.Context(), bson.M{"_id": id}); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.Hex()})
}
