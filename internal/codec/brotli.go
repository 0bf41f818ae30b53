package codec

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// BrotliCodec 基于 github.com/andybalholm/brotli 的压缩实现。
type BrotliCodec struct{}

// 编译期断言：确保 BrotliCodec 实现了 Codec 接口。
var _ Codec = BrotliCodec{}

// NewBrotliCodec 创建一个带体积约束的 BrotliCodec。
func NewBrotliCodec() Codec {
	return sizeChecked{inner: BrotliCodec{}}
}

func (BrotliCodec) Name() string {
	return BrotliName
}

func (BrotliCodec) Ext() string {
	return ".br"
}

// Compress 实现 Codec 接口。
func (c BrotliCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: brotli.BestCompression,
	})
	if _, err := w.Write(src); err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	if err := w.Close(); err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decompress 实现 Codec 接口。
func (BrotliCodec) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
}
