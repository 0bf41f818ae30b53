package minify

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

const htmlMediaType = "text/html"

// 可通过配置开关的 HTML 压缩选项。
// 未出现在配置中的选项使用这里的默认值。
const (
	OptKeepQuotes          = "keep_quotes"
	OptKeepDocumentTags    = "keep_document_tags"
	OptKeepEndTags         = "keep_end_tags"
	OptKeepWhitespace      = "keep_whitespace"
	OptKeepComments        = "keep_comments"
	OptKeepDefaultAttrVals = "keep_default_attr_vals"
)

// Minifier 对 HTML 文本做原地压缩前的体积缩减。
//
// 实例可安全地被多个协程并发使用。
type Minifier struct {
	m *minify.M
}

// New 根据选项集合创建一个 Minifier。
//
// options 中缺失的键使用默认值；keep_quotes 默认开启，
// 去引号对部分旧客户端并不安全，由使用方显式关闭。
func New(options map[string]bool) *Minifier {
	opt := func(name string, def bool) bool {
		if v, ok := options[name]; ok {
			return v
		}
		return def
	}

	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepQuotes:          opt(OptKeepQuotes, true),
		KeepDocumentTags:    opt(OptKeepDocumentTags, false),
		KeepEndTags:         opt(OptKeepEndTags, false),
		KeepWhitespace:      opt(OptKeepWhitespace, false),
		KeepComments:        opt(OptKeepComments, false),
		KeepDefaultAttrVals: opt(OptKeepDefaultAttrVals, false),
	})

	return &Minifier{m: m}
}

// Minify 缩减 src 的体积并返回结果。
//
// src 必须是合法的 UTF-8 文本；返回的结果不保证一定比输入小，
// 是否采纳由调用方比较后决定。
func (mf *Minifier) Minify(path string, src []byte) ([]byte, error) {
	if !utf8.Valid(src) {
		return nil, merr.WrapErrMinifyFailed(path, errors.New("file is not valid UTF-8"))
	}

	out, err := mf.m.Bytes(htmlMediaType, src)
	if err != nil {
		return nil, merr.WrapErrMinifyFailed(path, err)
	}
	return out, nil
}
