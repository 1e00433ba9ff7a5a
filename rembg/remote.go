package rembg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"

	"github.com/sirupsen/logrus"

	"github.com/chaos-io/imgedit/imaging"
	nhttp "github.com/chaos-io/imgedit/util/http"
)

// Remote 调远端 rembg 推理服务
// 协议：multipart POST 一个 image 文件字段，响应体是去背景后的 PNG 字节
type Remote struct {
	endpoint string
	cli      nhttp.IClient
}

func NewRemote(endpoint string) *Remote {
	return &Remote{
		endpoint: endpoint,
		cli:      nhttp.NewHTTPClient(),
	}
}

func (r *Remote) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	_ = writer.Close()

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.endpoint,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   &raw,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	out, err := imaging.DecodeBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode remote response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"endpoint": r.endpoint,
		"width":    out.Bounds().Dx(),
		"height":   out.Bounds().Dy(),
	}).Debug("remote rembg done")

	return out, nil
}

var _ Remover = (*Remote)(nil)
