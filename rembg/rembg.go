package rembg

import (
	"context"
	"image"
)

// Remover 背景去除：输入一张图，返回同尺寸、背景透明的图
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Noop 不做任何处理，原图返回
// 没有配置模型时的缺省后端，保证 HTTP 层可独立运行和测试
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Remove(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
