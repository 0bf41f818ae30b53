package pipeline

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/lk2023060901/precompress-go/internal/codec"
	"github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
	"github.com/lk2023060901/precompress-go/pkg/util/typeutil"
)

// defaultMinSize 为触发压缩的最小源文件字节数。
// 过小的文件压缩后几乎必然变大，直接跳过。
const defaultMinSize = 20

var (
	defaultTextExtensions = []string{
		".atom", ".css", ".htm", ".html", ".ini", ".js",
		".json", ".py", ".rss", ".txt", ".xml", ".xsl",
	}

	defaultMinifyExtensions = []string{".htm", ".html"}
)

// Options 为一次流水线运行的完整配置。
// 实例在 Validate 之后视为只读，运行期间不再修改。
type Options struct {
	// OutputPath 为待扫描的构建产物根目录。
	OutputPath string `mapstructure:"output_path"`

	// 启用的压缩编码。zopfli 与 gzip 的产物扩展名相同，
	// 两者同时开启时 zopfli 优先，gzip 会被关闭。
	Gzip   bool `mapstructure:"gzip"`
	Zopfli bool `mapstructure:"zopfli"`
	Brotli bool `mapstructure:"brotli"`

	// Overwrite 控制内容已过期的产物是否允许重算覆盖。
	Overwrite bool `mapstructure:"overwrite"`

	// MinSize 为参与压缩的最小源文件字节数，等于该值的文件仍会处理。
	MinSize int `mapstructure:"min_size"`

	// TextExtensions 为参与压缩的文件扩展名（带前导点）。
	TextExtensions []string `mapstructure:"text_extensions"`

	// MinifyEnabled 控制是否在压缩前对 HTML 做体积缩减。
	MinifyEnabled bool `mapstructure:"minify"`

	// MinifyExtensions 为参与体积缩减的文件扩展名。
	MinifyExtensions []string `mapstructure:"minify_extensions"`

	// MinifyOptions 原样透传给 minifier。
	MinifyOptions map[string]bool `mapstructure:"minify_options"`

	// 由 Validate 归一化得到的扩展名集合。
	textExts   typeutil.Set[string]
	minifyExts typeutil.Set[string]
}

// DefaultOptions 返回带默认值的 Options。
func DefaultOptions() *Options {
	return &Options{
		Gzip:             true,
		Brotli:           true,
		MinSize:          defaultMinSize,
		TextExtensions:   slices.Clone(defaultTextExtensions),
		MinifyExtensions: slices.Clone(defaultMinifyExtensions),
	}
}

// Validate 校验并归一化配置。
// 非法扩展名只产生警告日志并被剔除，不会使校验失败。
func (opts *Options) Validate() error {
	if opts.OutputPath == "" {
		return merr.WrapErrParameterMissing("output_path")
	}
	if opts.MinSize < 0 {
		return merr.WrapErrParameterInvalidMsg("min_size must not be negative, got %d", opts.MinSize)
	}

	// zopfli 与 gzip 产物路径相同，二者互斥，zopfli 胜出。
	if opts.Zopfli && opts.Gzip {
		log.Warn("zopfli and gzip target the same artifact extension, disabling plain gzip for this run")
		opts.Gzip = false
	}

	opts.textExts = normalizeExtensions("text_extensions", opts.TextExtensions)
	opts.minifyExts = normalizeExtensions("minify_extensions", opts.MinifyExtensions)

	if !opts.Gzip && !opts.Zopfli && !opts.Brotli && !opts.MinifyEnabled {
		log.Warn("no codecs enabled and minification disabled, the run will not produce any output")
	}

	return nil
}

// enabledCodecs 根据配置构造启用的编码器列表。
func (opts *Options) enabledCodecs() []codec.Codec {
	var codecs []codec.Codec
	if opts.Gzip {
		codecs = append(codecs, codec.NewGzipCodec())
	}
	if opts.Zopfli {
		codecs = append(codecs, codec.NewZopfliCodec())
	}
	if opts.Brotli {
		codecs = append(codecs, codec.NewBrotliCodec())
	}
	return codecs
}

// normalizeExtensions 归一化扩展名列表并返回集合。
// 剔除不以点开头的条目以及 ".gz"/".br"（压缩产物不再参与压缩）。
func normalizeExtensions(option string, exts []string) typeutil.Set[string] {
	set := typeutil.NewSet[string]()
	for _, ext := range lo.Uniq(exts) {
		if !strings.HasPrefix(ext, ".") {
			log.Warn("ignoring extension without a leading period",
				zap.String("option", option), zap.String("extension", ext))
			continue
		}
		if ext == ".gz" || ext == ".br" {
			log.Warn("compressed artifacts cannot be recompressed, ignoring extension",
				zap.String("option", option), zap.String("extension", ext))
			continue
		}
		set.Insert(ext)
	}
	return set
}
