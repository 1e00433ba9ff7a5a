package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DataURIPrefix 编码输出统一带 PNG data URI 前缀
const DataURIPrefix = "data:image/png;base64,"

// DecodeError 表示客户端输入无法解码（bad base64 或不是图片）
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode 把 Base64 字符串解码为 NRGBA 图片
// 允许带 data URI 前缀（客户端会把上一次响应原样回传）
func Decode(b64 string) (*image.NRGBA, error) {
	if idx := strings.Index(b64, ";base64,"); idx >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[idx+len(";base64,"):]
	}

	// 有些客户端会按行折叠 base64，空白字符一律丢弃
	b64 = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, b64)

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "unparseable image", Err: err}
	}

	return ToNRGBA(img), nil
}

// DecodeBytes 解码原始图片字节（multipart 上传的背景图走这里）
func DecodeBytes(raw []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "unparseable image", Err: err}
	}
	return ToNRGBA(img), nil
}

// Encode 把图片编码为 PNG，再转 Base64，带 data URI 前缀
func Encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("png encode: %w", err)
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
