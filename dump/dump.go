// Package dump 把处理结果落盘便于排查，定时清理过期文件
package dump

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
)

type Dumper struct {
	dir       string
	retention time.Duration
	cron      *cron.Cron
}

// New 创建 Dumper，目录不存在则建
func New(dir string, retention time.Duration) (*Dumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	return &Dumper{dir: dir, retention: retention}, nil
}

// Save 写一张 PNG，文件名 <ksuid>_<op>.png
// 落盘失败只记日志，不影响请求
func (d *Dumper) Save(op string, img image.Image) {
	name := filepath.Join(d.dir, ksuid.New().String()+"_"+op+".png")
	f, err := os.Create(name)
	if err != nil {
		log.WithError(err).Warn("dump create failed")
		return
	}
	defer func() {
		_ = f.Close()
	}()

	if err := png.Encode(f, img); err != nil {
		log.WithError(err).Warn("dump encode failed")
		return
	}
	log.WithField("file", name).Debug("dumped image")
}

// StartJanitor 按 cron 表达式定时清理过期文件，如 "@every 10m"
func (d *Dumper) StartJanitor(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, d.Prune); err != nil {
		return fmt.Errorf("add janitor job: %w", err)
	}
	c.Start()
	d.cron = c
	return nil
}

// Stop 停掉清理任务
func (d *Dumper) Stop() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

// Prune 删除超过保留期的落盘文件
func (d *Dumper) Prune() {
	cutoff := time.Now().Add(-d.retention)
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		log.WithError(err).Warn("janitor read dir failed")
		return
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(d.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("janitor pruned dumps")
	}
}
