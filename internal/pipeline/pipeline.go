package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/precompress-go/internal/codec"
	"github.com/lk2023060901/precompress-go/internal/minify"
	"github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/metrics"
	"github.com/lk2023060901/precompress-go/pkg/util/conc"
	"github.com/lk2023060901/precompress-go/pkg/util/hardware"
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
	"github.com/lk2023060901/precompress-go/pkg/util/typeutil"
)

// Stats 汇总一次运行中各类事件的计数。
// 所有字段都由并发任务累加，读取时使用原子操作。
type Stats struct {
	FilesScanned        atomic.Int64
	FilesMinified       atomic.Int64
	MinifyFailures      atomic.Int64
	ArtifactsWritten    atomic.Int64
	SkippedCurrent      atomic.Int64
	SkippedExisting     atomic.Int64
	SkippedTooSmall     atomic.Int64
	SkippedSizeIncrease atomic.Int64
	TaskFailures        atomic.Int64
	BytesIn             atomic.Int64
	BytesOut            atomic.Int64
}

// Pipeline 将构建产物树中的文本文件压缩为同目录的 .gz/.br 产物。
//
// 一次 Run 为一个完整的处理单位：扫描、（可选的）体积缩减、
// 按 (文件, 编码器) 粒度并发压缩。单个任务的失败只记录日志与计数，
// 不会中断其余任务。
type Pipeline struct {
	opts     *Options
	codecs   []codec.Codec
	minifier *minify.Minifier
	stats    Stats

	// written 保证同一产物路径在一次运行中至多由一个任务写入。
	written *typeutil.ConcurrentSet[string]
}

// New 根据配置构造 Pipeline。配置校验失败时返回错误。
func New(opts *Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts:   opts,
		codecs: opts.enabledCodecs(),
	}
	if opts.MinifyEnabled {
		p.minifier = minify.New(opts.MinifyOptions)
	}
	return p, nil
}

// Run 执行一轮完整的预压缩。
//
// 返回的 error 仅反映扫描本身的失败（如根目录不存在）；
// 任务级失败全部体现在返回的 Stats 与日志中，运行始终跑完。
func (p *Pipeline) Run() (*Stats, error) {
	start := time.Now()
	p.written = typeutil.NewConcurrentSet[string]()

	workers := hardware.GetCPUNum()
	// 单个任务 panic 只算该任务失败，不能拖垮整轮运行。
	pool := conc.NewPool[[]byte](workers, conc.WithConcealPanic(true))
	defer pool.Release()

	log.Info("starting precompress run",
		zap.String("outputPath", p.opts.OutputPath),
		zap.Int("workers", workers),
		zap.Strings("codecs", lo.Map(p.codecs, func(c codec.Codec, _ int) string { return c.Name() })),
		zap.Bool("minify", p.minifier != nil),
		zap.Bool("overwrite", p.opts.Overwrite))

	// 体积缩减被禁用时，只命中 minify 扩展名的文件无事可做。
	scanExts := p.opts.textExts
	if p.minifier != nil {
		scanExts = scanExts.Union(p.opts.minifyExts)
	}

	var wg sync.WaitGroup
	err := scanTree(p.opts.OutputPath, scanExts, func(path string) error {
		p.dispatchFile(path, pool, &wg)
		return nil
	})
	wg.Wait()
	if err != nil {
		return &p.stats, err
	}

	log.Info("precompress run finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("filesScanned", p.stats.FilesScanned.Load()),
		zap.Int64("artifactsWritten", p.stats.ArtifactsWritten.Load()),
		zap.Int64("filesMinified", p.stats.FilesMinified.Load()),
		zap.Int64("skippedCurrent", p.stats.SkippedCurrent.Load()),
		zap.Int64("skippedExisting", p.stats.SkippedExisting.Load()),
		zap.Int64("skippedTooSmall", p.stats.SkippedTooSmall.Load()),
		zap.Int64("skippedSizeIncrease", p.stats.SkippedSizeIncrease.Load()),
		zap.Int64("taskFailures", p.stats.TaskFailures.Load()),
		zap.Int64("bytesIn", p.stats.BytesIn.Load()),
		zap.Int64("bytesOut", p.stats.BytesOut.Load()))
	return &p.stats, nil
}

// dispatchFile 为单个源文件生成任务。
// 源内容只读取一次，之后在该文件的全部任务间以只读方式共享。
func (p *Pipeline) dispatchFile(path string, pool *conc.Pool[[]byte], wg *sync.WaitGroup) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.stats.TaskFailures.Inc()
		log.Error("failed to read source file", zap.String("path", path), zap.Error(err))
		return
	}
	p.stats.FilesScanned.Inc()
	metrics.SourceFileSize.Observe(float64(len(data)))

	if len(data) < p.opts.MinSize {
		p.stats.SkippedTooSmall.Inc()
		for _, c := range p.codecs {
			metrics.ArtifactsSkipped.WithLabelValues(c.Name(), metrics.ReasonTooSmall).Inc()
		}
		log.Debug("source file below minimum size, skipping",
			zap.String("path", path),
			zap.Int("size", len(data)),
			zap.Int("minSize", p.opts.MinSize))
		return
	}

	ext := filepath.Ext(path)
	doMinify := p.minifier != nil && p.opts.minifyExts.Contain(ext)
	doCompress := len(p.codecs) > 0 && p.opts.textExts.Contain(ext)

	if !doMinify {
		if !doCompress {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.compressFile(path, data, pool)
		}()
		return
	}

	future := pool.Submit(func() ([]byte, error) {
		return p.minifyFile(path, data)
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		// 本文件的压缩任务必须等 minify 结束后才能派发；
		// minify 失败时整个文件退出本轮压缩，绝不压缩未缩减的内容。
		newData, err := future.Await()
		if err != nil {
			p.stats.MinifyFailures.Inc()
			metrics.MinifyFailures.Inc()
			log.Warn("minification failed, skipping compression for this file",
				zap.String("path", path), zap.Error(err))
			return
		}
		if doCompress {
			p.compressFile(path, newData, pool)
		}
	}()
}

// minifyFile 缩减 path 的体积。
// 结果更小时回写源文件，并返回本轮后续压缩应使用的权威内容。
func (p *Pipeline) minifyFile(path string, data []byte) ([]byte, error) {
	out, err := p.minifier.Minify(path, data)
	if err != nil {
		return nil, err
	}
	if len(out) >= len(data) {
		return data, nil
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}
	p.stats.FilesMinified.Inc()
	metrics.FilesMinified.Inc()
	log.Info("minified source file",
		zap.String("path", path),
		zap.Int("before", len(data)),
		zap.Int("after", len(out)))
	return out, nil
}

// compressFile 为单个文件派发所有启用编码器的压缩任务并等待完成。
func (p *Pipeline) compressFile(path string, data []byte, pool *conc.Pool[[]byte]) {
	futures := make([]*conc.Future[[]byte], 0, len(p.codecs))
	for _, c := range p.codecs {
		c := c
		futures = append(futures, pool.Submit(func() ([]byte, error) {
			p.runTask(path, data, c)
			return nil, nil
		}))
	}
	// 任务内部已经完成上报，这里只等待全部结束。
	_ = conc.BlockOnAll(futures...)
}

// runTask 处理单个 (源文件, 编码器) 任务。
// 任务内的任何失败只影响自身，通过日志与计数器上报。
func (p *Pipeline) runTask(path string, data []byte, c codec.Codec) {
	artifact := path + c.Ext()
	if !p.written.Insert(artifact) {
		log.Warn("duplicate artifact target, skipping task",
			zap.String("artifact", artifact), zap.String("codec", c.Name()))
		return
	}

	switch decide(data, artifact, c) {
	case decisionCurrent:
		p.stats.SkippedCurrent.Inc()
		metrics.ArtifactsSkipped.WithLabelValues(c.Name(), metrics.ReasonCurrent).Inc()
		log.Debug("artifact already matches source content",
			zap.String("artifact", artifact), zap.String("codec", c.Name()))
		return
	case decisionStale:
		if !p.opts.Overwrite {
			p.stats.SkippedExisting.Inc()
			metrics.ArtifactsSkipped.WithLabelValues(c.Name(), metrics.ReasonExisting).Inc()
			log.Warn("existing artifact is out of date but overwrite is disabled, leaving it untouched",
				zap.String("artifact", artifact), zap.String("codec", c.Name()))
			return
		}
		log.Warn("overwriting out-of-date artifact",
			zap.String("artifact", artifact), zap.String("codec", c.Name()))
		// 先删除旧产物：若重算被体积约束拒绝，
		// 磁盘上不能留下与当前源内容不一致的文件。
		if err := os.Remove(artifact); err != nil {
			p.taskFailed(c, artifact, merr.WrapErrIoFailed(artifact, err))
			return
		}
	}

	blob, err := c.Compress(data)
	if err != nil {
		if errors.Is(err, merr.ErrSizeIncrease) {
			p.stats.SkippedSizeIncrease.Inc()
			metrics.ArtifactsSkipped.WithLabelValues(c.Name(), metrics.ReasonSizeIncrease).Inc()
			log.Info("compression would not shrink the file, no artifact written",
				zap.String("path", path),
				zap.String("codec", c.Name()),
				zap.Int("inSize", len(data)),
				zap.Error(err))
			return
		}
		p.taskFailed(c, artifact, err)
		return
	}

	if err := writeArtifact(artifact, blob, path); err != nil {
		p.taskFailed(c, artifact, err)
		return
	}

	p.stats.ArtifactsWritten.Inc()
	p.stats.BytesIn.Add(int64(len(data)))
	p.stats.BytesOut.Add(int64(len(blob)))
	metrics.ArtifactsWritten.WithLabelValues(c.Name()).Inc()
	metrics.BytesIn.WithLabelValues(c.Name()).Add(float64(len(data)))
	metrics.BytesOut.WithLabelValues(c.Name()).Add(float64(len(blob)))
	log.Debug("artifact written",
		zap.String("artifact", artifact),
		zap.String("codec", c.Name()),
		zap.Int("inSize", len(data)),
		zap.Int("outSize", len(blob)))
}

func (p *Pipeline) taskFailed(c codec.Codec, artifact string, err error) {
	p.stats.TaskFailures.Inc()
	metrics.ArtifactsFailed.WithLabelValues(c.Name()).Inc()
	log.Error("compression task failed",
		zap.String("artifact", artifact),
		zap.String("codec", c.Name()),
		zap.Error(err))
}
