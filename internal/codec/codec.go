package codec

import (
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// Codec 抽象了“单个文件一次性压缩/解压”能力。
//
// 设计目标：
//   - 面向构建产物的整文件压缩，而不是流式或分块场景。
//   - 不做全局单例，调用方按需创建具体实现的实例。
type Codec interface {
	// Name 返回编解码器的名称，用于日志与配置项。
	Name() string

	// Ext 返回压缩产物的文件扩展名（包含前导点，如 ".gz"）。
	Ext() string

	// Compress 压缩 src 并返回完整的压缩数据。
	//
	// 压缩结果体积不小于输入时返回 ErrSizeIncrease，
	// 空输入必然命中该约束（格式头本身就有体积）。
	Compress(src []byte) ([]byte, error)

	// Decompress 解压 src 并返回原始数据。
	//
	// src 必须是与 Ext 对应格式的完整压缩数据，
	// 不要求一定由本实例的 Compress 产生。
	Decompress(src []byte) ([]byte, error)
}

const (
	GzipName   = "gzip"
	ZopfliName = "zopfli"
	BrotliName = "brotli"
)

// ByName 按名称创建对应的 Codec 实例。
func ByName(name string) (Codec, error) {
	switch name {
	case GzipName:
		return NewGzipCodec(), nil
	case ZopfliName:
		return NewZopfliCodec(), nil
	case BrotliName:
		return NewBrotliCodec(), nil
	default:
		return nil, merr.WrapErrCodecUnknown(name)
	}
}

// sizeChecked 对具体实现的 Compress 结果统一施加体积约束，
// 调用方无需关心是哪个实现拒绝了输入。
type sizeChecked struct {
	inner Codec
}

var _ Codec = sizeChecked{}

func (c sizeChecked) Name() string {
	return c.inner.Name()
}

func (c sizeChecked) Ext() string {
	return c.inner.Ext()
}

// Compress 实现 Codec 接口，压缩结果不比输入小时返回 ErrSizeIncrease。
func (c sizeChecked) Compress(src []byte) ([]byte, error) {
	out, err := c.inner.Compress(src)
	if err != nil {
		return nil, err
	}
	if len(out) >= len(src) {
		return nil, merr.WrapErrSizeIncrease(c.inner.Name(), len(src), len(out))
	}
	return out, nil
}

// Decompress 实现 Codec 接口。
func (c sizeChecked) Decompress(src []byte) ([]byte, error) {
	return c.inner.Decompress(src)
}
