package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chaos-io/imgedit/dump"
	"github.com/chaos-io/imgedit/rembg"
)

// Server 无状态图片处理服务
// 三个 POST 接口 + 存活探针，请求之间不共享任何可变状态
type Server struct {
	engine  *gin.Engine
	remover rembg.Remover
	dumper  *dump.Dumper
}

// New 组装路由和中间件，dumper 可以为 nil（关闭调试落盘）
func New(remover rembg.Remover, dumper *dump.Dumper) *Server {
	s := &Server{
		engine:  gin.New(),
		remover: remover,
		dumper:  dumper,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(RequestID())
	s.engine.Use(Logger())
	// 任意来源（开发期前端直连）
	s.engine.Use(cors.Default())

	s.engine.GET("/", s.home)
	api := s.engine.Group("/api")
	api.POST("/remove-background", s.removeBackground)
	api.POST("/edit-background", s.editBackground)
	api.POST("/resize-image", s.resizeImage)

	return s
}

// Engine 暴露给 httptest 用
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
