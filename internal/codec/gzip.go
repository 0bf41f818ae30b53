package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// GzipCodec 基于 github.com/klauspost/compress/gzip 的压缩实现。
//
// 固定使用最高压缩级别：产物是一次生成、反复下发的静态文件，
// 压缩耗时只在构建期支付一次。
type GzipCodec struct{}

// 编译期断言：确保 GzipCodec 实现了 Codec 接口。
var _ Codec = GzipCodec{}

// NewGzipCodec 创建一个带体积约束的 GzipCodec。
func NewGzipCodec() Codec {
	return sizeChecked{inner: GzipCodec{}}
}

func (GzipCodec) Name() string {
	return GzipName
}

func (GzipCodec) Ext() string {
	return ".gz"
}

// Compress 实现 Codec 接口。
func (c GzipCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	if err := w.Close(); err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decompress 实现 Codec 接口。
func (GzipCodec) Decompress(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
