package codec

import (
	"bytes"

	"github.com/foobaz/go-zopfli/zopfli"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// ZopfliCodec 基于 github.com/foobaz/go-zopfli 的压缩实现。
//
// 产物与 gzip 格式完全兼容（同样使用 ".gz" 扩展名），
// 但压缩率更高，代价是明显更长的压缩耗时。
type ZopfliCodec struct{}

// 编译期断言：确保 ZopfliCodec 实现了 Codec 接口。
var _ Codec = ZopfliCodec{}

// NewZopfliCodec 创建一个带体积约束的 ZopfliCodec。
func NewZopfliCodec() Codec {
	return sizeChecked{inner: ZopfliCodec{}}
}

func (ZopfliCodec) Name() string {
	return ZopfliName
}

func (ZopfliCodec) Ext() string {
	return ".gz"
}

// Compress 实现 Codec 接口。
func (c ZopfliCodec) Compress(src []byte) ([]byte, error) {
	opts := zopfli.DefaultOptions()
	var buf bytes.Buffer
	if err := zopfli.GzipCompress(&opts, src, &buf); err != nil {
		return nil, merr.WrapErrCodecFailure(c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decompress 实现 Codec 接口。
// zopfli 只提供编码器，解码复用标准 gzip 实现。
func (ZopfliCodec) Decompress(src []byte) ([]byte, error) {
	return GzipCodec{}.Decompress(src)
}
