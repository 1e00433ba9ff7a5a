package server

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/imgedit/imaging"
)

func (s *Server) home(c *gin.Context) {
	c.String(http.StatusOK, "Image Processing Backend is running!")
}

// removeBackground 去背景：decode → 推理 → encode
func (s *Server) removeBackground(c *gin.Context) {
	b64, ok := c.GetPostForm("image_data")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image_data provided"})
		return
	}

	input, err := imaging.Decode(b64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
		return
	}

	output, err := s.remover.Remove(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove background", "details": err.Error()})
		return
	}

	encoded, err := imaging.Encode(output)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode processed image", "details": err.Error()})
		return
	}

	s.dump("rembg", output)
	c.JSON(http.StatusOK, gin.H{
		"image_data": encoded,
		"message":    "Background removed successfully!",
	})
}

// editBackground 给带透明通道的前景换背景：纯色或上传图，alpha over 合成
func (s *Server) editBackground(c *gin.Context) {
	b64, ok := c.GetPostForm("image_data")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image_data provided"})
		return
	}

	foreground, err := imaging.Decode(b64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current image data"})
		return
	}

	colorHex := c.PostForm("color")
	bgFile, _ := c.FormFile("background_image")
	if colorHex == "" && bgFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either 'color' or 'background_image' must be provided"})
		return
	}

	b := foreground.Bounds()
	var background image.Image
	if bgFile != nil {
		// 上传图优先，缩放到前景尺寸
		f, err := bgFile.Open()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit background", "details": err.Error()})
			return
		}
		defer func() {
			_ = f.Close()
		}()

		raw, err := io.ReadAll(f)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit background", "details": err.Error()})
			return
		}
		bgImg, err := imaging.DecodeBytes(raw)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit background", "details": err.Error()})
			return
		}
		background = imaging.Resize(bgImg, b.Dx(), b.Dy())
	} else {
		rgba, err := imaging.ParseHexColor(colorHex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid color hex code"})
			return
		}
		background = imaging.Fill(b.Dx(), b.Dy(), rgba)
	}

	final := imaging.Composite(foreground, background)

	encoded, err := imaging.Encode(final)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode processed image", "details": err.Error()})
		return
	}

	s.dump("edit", final)
	c.JSON(http.StatusOK, gin.H{
		"image_data": encoded,
		"message":    "Background edited successfully!",
	})
}

// resizeImage 缩放：两边都给精确缩放，只给一边按比例补全（向零取整）
func (s *Server) resizeImage(c *gin.Context) {
	b64, ok := c.GetPostForm("image_data")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image_data provided"})
		return
	}

	current, err := imaging.Decode(b64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current image data"})
		return
	}

	var width, height int
	if str := c.PostForm("width"); str != "" {
		width, err = strconv.Atoi(str)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid width parameter"})
			return
		}
		if width <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Width must be a positive integer"})
			return
		}
	}
	if str := c.PostForm("height"); str != "" {
		height, err = strconv.Atoi(str)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid height parameter"})
			return
		}
		if height <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Height must be a positive integer"})
			return
		}
	}

	if width == 0 && height == 0 {
		// 没给尺寸就原样回传
		encoded, err := imaging.Encode(current)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode image", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"image_data": encoded,
			"message":    "No dimensions provided, image returned as is.",
		})
		return
	}

	b := current.Bounds()
	w, h := imaging.FitDimensions(b.Dx(), b.Dy(), width, height)
	// 按比例算出的一边可能截断成 0，nfnt 会把 0 当成“保持比例”，必须先挡掉
	if w < 1 || h < 1 {
		err := fmt.Errorf("computed dimensions %dx%d are not positive", w, h)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resize image", "details": err.Error()})
		return
	}
	resized := imaging.Resize(current, w, h)

	encoded, err := imaging.Encode(resized)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode processed image", "details": err.Error()})
		return
	}

	s.dump("resize", resized)
	c.JSON(http.StatusOK, gin.H{
		"image_data": encoded,
		"message":    "Image resized successfully!",
	})
}

// dump 调试落盘，dumper 为空时什么都不做
func (s *Server) dump(op string, img image.Image) {
	if s.dumper == nil {
		return
	}
	s.dumper.Save(op, img)
}
