package storage

import (
	errs "MProject/tools/errs"
	"MProject/tools/ids"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// MediaStore 媒体文件落盘：上传先进 tmp（gin 自己管），确认后移入媒体目录。
// 对外暴露 /media/<name> 的 URL；换对象存储时只动这里。
type MediaStore struct {
	BaseDir string // 媒体目录（磁盘）
	BaseURL string // 对外前缀，如 "/media"
}

var allowedExt = map[string]bool{
	".mp3": true, ".m4a": true, ".flac": true, ".wav": true,
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

func NewMediaStore(baseDir, baseURL string) (*MediaStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errs.WrapMsg(err, "create media dir", "dir", baseDir)
	}
	return &MediaStore{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save 保存上传文件，返回可访问 URL。文件名服务端生成，不信任客户端。
func (m *MediaStore) Save(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", errs.ErrArgs.WrapMsg("unsupported file type", "ext", ext)
	}
	name := ids.GenerateString() + ext
	dst := filepath.Join(m.BaseDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", errs.WrapMsg(err, "save uploaded file", "dst", dst)
	}
	return path.Join(m.BaseURL, name), nil
}

// Remove 按 URL 删除媒体文件；文件不存在不算错（幂等）
func (m *MediaStore) Remove(url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.BaseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return errs.WrapMsg(err, "remove media file", "name", name)
	}
	return nil
}
