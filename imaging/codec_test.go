package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func encodePNGBase64(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := testImage(40, 30, color.NRGBA{R: 10, G: 200, B: 30, A: 128})

	encoded, err := Encode(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, DataURIPrefix))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
	// PNG 无损，像素应当完全相等
	assert.Equal(t, src.Pix, decoded.Pix)
}

func TestDecodeWithoutPrefix(t *testing.T) {
	src := testImage(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	decoded, err := Decode(encodePNGBase64(t, src))
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
}

func TestDecodeFoldedBase64(t *testing.T) {
	// 按 64 列折行并混入空白的 base64 也要能解
	src := testImage(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	raw := encodePNGBase64(t, src)

	var folded strings.Builder
	for i, r := range raw {
		if i > 0 && i%64 == 0 {
			folded.WriteString("\r\n")
		}
		folded.WriteRune(r)
	}
	input := " " + folded.String() + "\t\n"

	decoded, err := Decode(input)
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
	assert.Equal(t, src.Pix, decoded.Pix)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"无效base64", "!!!not-base64!!!"},
		{"合法base64但不是图片", base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{"空串", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			assert.Error(t, err)
			var derr *DecodeError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestDecodeBytes(t *testing.T) {
	src := testImage(5, 7, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	decoded, err := DecodeBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 5, decoded.Bounds().Dx())
	assert.Equal(t, 7, decoded.Bounds().Dy())

	_, err = DecodeBytes([]byte("garbage"))
	assert.Error(t, err)
}
