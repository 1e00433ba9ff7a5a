package http

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/http.go -package=mocks . IClient
type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	// Response 非空时写入响应体：*[]byte 收原始字节，其他类型按 JSON 解码
	Response interface{}

	Timeout time.Duration
}
