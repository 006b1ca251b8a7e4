package files

import (
	"MProject/logger"
	safe "MProject/tools/safe"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TempCleaner 定时清空上传临时目录（multipart 中断会留垃圾文件）。
type TempCleaner struct {
	dir      string
	every    time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

// StartTempCleaner every<=0 时默认 1 小时
func StartTempCleaner(dir string, every time.Duration) *TempCleaner {
	if every <= 0 {
		every = time.Hour
	}
	c := &TempCleaner{
		dir:    dir,
		every:  every,
		stopCh: make(chan struct{}),
	}
	safe.Go(c.sweeper)
	return c
}

func (c *TempCleaner) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *TempCleaner) sweeper() {
	t := time.NewTicker(c.every)
	defer t.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			c.sweepOnce()
		}
	}
}

func (c *TempCleaner) sweepOnce() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[TempCleaner] read dir %s: %v", c.dir, err)
		}
		return
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			logger.Warnf("[TempCleaner] remove %s: %v", e.Name(), err)
			continue
		}
		n++
	}
	if n > 0 {
		logger.Infof("[TempCleaner] removed %d temp files from %s", n, c.dir)
	}
}
