package imaging

import (
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/nfnt/resize"
)

// ToNRGBA 转为 NRGBA，方便统一处理
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// ParseHexColor 解析 6 位十六进制颜色，如 "FF0000" 或 "#FF0000"
// alpha 固定不透明
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("hex color must have 6 digits, got %q", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

// Resize 缩放到精确尺寸（Lanczos3，不保持比例）
func Resize(img image.Image, width, height int) *image.NRGBA {
	return ToNRGBA(resize.Resize(uint(width), uint(height), img, resize.Lanczos3))
}

// FitDimensions 补全缺失的一边
// 只给一边时按原始宽高比计算另一边，向零取整
func FitDimensions(origW, origH, width, height int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, width * origH / origW
	case height > 0:
		return height * origW / origH, height
	default:
		return origW, origH
	}
}

// Fill 生成纯色背景画布
func Fill(width, height int, c color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return dst
}

// Composite 把前景按自身 alpha 合成到背景上（over 合成，不是覆盖粘贴）
// 背景尺寸必须等于前景尺寸，结果是新图，两个输入不被修改
func Composite(fg *image.NRGBA, bg image.Image) *image.NRGBA {
	b := fg.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, bg, bg.Bounds().Min, draw.Src)
	draw.Draw(dst, b, fg, b.Min, draw.Over)
	return dst
}
