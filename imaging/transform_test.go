package imaging

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"带井号", "#FF0000", color.NRGBA{R: 255, A: 255}, false},
		{"不带井号", "00FF00", color.NRGBA{G: 255, A: 255}, false},
		{"小写", "0000ff", color.NRGBA{B: 255, A: 255}, false},
		{"非法字符", "#ZZZZZZ", color.NRGBA{}, true},
		{"太短", "#FFF", color.NRGBA{}, true},
		{"太长", "#FF00000", color.NRGBA{}, true},
		{"空串", "", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name                 string
		origW, origH         int
		width, height        int
		wantW, wantH         int
	}{
		{"只给宽按比例截断", 400, 300, 200, 0, 200, 150},
		{"只给高按比例截断", 400, 300, 0, 150, 200, 150},
		{"都给不保持比例", 400, 300, 123, 456, 123, 456},
		{"截断不是四舍五入", 300, 200, 100, 0, 100, 66},
		{"都不给原样返回", 400, 300, 0, 0, 400, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.origW, tt.origH, tt.width, tt.height)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestResizeExact(t *testing.T) {
	src := testImage(400, 300, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	out := Resize(src, 123, 456)
	assert.Equal(t, 123, out.Bounds().Dx())
	assert.Equal(t, 456, out.Bounds().Dy())
}

func TestFill(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	img := Fill(10, 20, red)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	assert.Equal(t, red, img.NRGBAAt(3, 7))
}

func TestCompositeOpaqueForeground(t *testing.T) {
	// 全不透明前景完全遮住背景
	fg := testImage(16, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	bg := Fill(16, 16, color.NRGBA{R: 255, A: 255})

	out := Composite(fg, bg)
	assert.Equal(t, fg.Pix, out.Pix)
}

func TestCompositeTransparentForeground(t *testing.T) {
	// 全透明前景，结果就是纯色背景
	fg := testImage(16, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	bg := Fill(16, 16, color.NRGBA{R: 255, A: 255})

	out := Composite(fg, bg)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(x, y))
		}
	}
}

func TestCompositeHalfTransparent(t *testing.T) {
	// 半透明前景按 alpha 加权，不是整张覆盖
	fg := testImage(4, 4, color.NRGBA{R: 0, G: 0, B: 0, A: 128})
	bg := Fill(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := Composite(fg, bg)
	px := out.NRGBAAt(1, 1)
	assert.EqualValues(t, 255, px.A)
	// 黑色 50% 盖在白色上，落在中间灰附近
	assert.InDelta(t, 127, int(px.R), 2)
	assert.InDelta(t, 127, int(px.G), 2)
	assert.InDelta(t, 127, int(px.B), 2)
}
