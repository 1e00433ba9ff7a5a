package rembg

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/chaos-io/imgedit/imaging"
)

// u2net 系列显著性模型的标准输入归一化参数
var (
	inputMean = [3]float32{0.485, 0.456, 0.406}
	inputStd  = [3]float32{0.229, 0.224, 0.225}
)

// ONNXConfig 本地 ONNX 推理配置
type ONNXConfig struct {
	// ModelPath 模型文件，如 u2net.onnx
	ModelPath string
	// LibraryPath onnxruntime 动态库路径，空则用默认
	LibraryPath string
	// InputName/OutputName 模型输入输出节点名（u2net: input.1 / 1959）
	InputName  string
	OutputName string
	// InputSize 模型输入边长，u2net 为 320
	InputSize int
}

func (c *ONNXConfig) withDefaults() ONNXConfig {
	out := *c
	if out.InputName == "" {
		out.InputName = "input.1"
	}
	if out.OutputName == "" {
		out.OutputName = "1959"
	}
	if out.InputSize <= 0 {
		out.InputSize = 320
	}
	return out
}

// ONNX 用本地 ONNX Runtime 会话跑背景去除
// 会话和张量在进程生命周期内共享，Remove 内部用互斥锁串行化推理
type ONNX struct {
	cfg     ONNXConfig
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
}

// NewONNX 创建 ONNX 后端，加载模型并建立会话
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	cfg = cfg.withDefaults()

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "onnx model not found at %s", cfg.ModelPath)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initialize onnxruntime environment")
		}
	}

	n := cfg.InputSize
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(n), int64(n)))
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, int64(n), int64(n)))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "create output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "create session options")
	}
	defer options.Destroy()
	_ = options.SetIntraOpNumThreads(4)
	_ = options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "create onnxruntime session")
	}

	logrus.WithFields(logrus.Fields{
		"model": cfg.ModelPath,
		"input": cfg.InputName,
		"size":  n,
	}).Info("onnx rembg session ready")

	return &ONNX{cfg: cfg, session: session, input: inputTensor, output: outputTensor}, nil
}

// Remove 推理并把显著性 mask 写入原图 alpha 通道
func (o *ONNX) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	src := imaging.ToNRGBA(img)

	o.mu.Lock()
	prepareInput(src, o.input.GetData(), o.cfg.InputSize)
	err := o.session.Run()
	var mask []float32
	if err == nil {
		mask = append(mask, o.output.GetData()...)
	}
	o.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "onnx inference")
	}

	return applyMask(src, mask, o.cfg.InputSize), nil
}

// Destroy 释放会话和张量
func (o *ONNX) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
	if o.input != nil {
		o.input.Destroy()
		o.input = nil
	}
	if o.output != nil {
		o.output.Destroy()
		o.output = nil
	}
}

// prepareInput 缩放到模型输入尺寸并做 CHW float32 归一化
func prepareInput(img *image.NRGBA, data []float32, size int) {
	channelSize := size * size
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	scaled := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			red[i] = (float32(r>>8)/255.0 - inputMean[0]) / inputStd[0]
			green[i] = (float32(g>>8)/255.0 - inputMean[1]) / inputStd[1]
			blue[i] = (float32(b>>8)/255.0 - inputMean[2]) / inputStd[2]
			i++
		}
	}
}

// applyMask 把 size×size 的 mask 归一化、放大到原尺寸，乘进 alpha 通道
func applyMask(src *image.NRGBA, mask []float32, size int) *image.NRGBA {
	lo, hi := mask[0], mask[0]
	for _, v := range mask {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	scale := hi - lo
	if scale <= 0 {
		scale = 1
	}

	gray := image.NewGray(image.Rect(0, 0, size, size))
	for i, v := range mask {
		gray.Pix[i] = uint8((v - lo) / scale * 255)
	}

	b := src.Bounds()
	full := resize.Resize(uint(b.Dx()), uint(b.Dy()), gray, resize.Lanczos3)

	out := image.NewNRGBA(b)
	copy(out.Pix, src.Pix)
	for y := 0; y < b.Dy(); y++ {
		row := y * out.Stride
		for x := 0; x < b.Dx(); x++ {
			m, _, _, _ := full.At(x, y).RGBA()
			a := out.Pix[row+x*4+3]
			out.Pix[row+x*4+3] = uint8(uint32(a) * (m >> 8) / 255)
		}
	}
	return out
}

var _ Remover = (*ONNX)(nil)
