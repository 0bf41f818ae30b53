package pipeline

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/precompress-go/internal/codec"
	"github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

type PipelineSuite struct {
	suite.Suite
}

func (s *PipelineSuite) SetupTest() {
	lg, prop, err := log.InitTestLogger(s.T(), &log.Config{Level: "error"})
	s.Require().NoError(err)
	log.ReplaceGlobals(lg, prop)
}

func (s *PipelineSuite) newOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputPath = dir
	opts.Brotli = false
	return opts
}

func (s *PipelineSuite) writeFile(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	s.Require().NoError(os.WriteFile(path, data, 0o644))
	return path
}

func (s *PipelineSuite) gzipOf(data []byte) []byte {
	blob, err := codec.NewGzipCodec().Compress(data)
	s.Require().NoError(err)
	return blob
}

func (s *PipelineSuite) run(opts *Options) *Stats {
	p, err := New(opts)
	s.Require().NoError(err)
	stats, err := p.Run()
	s.Require().NoError(err)
	return stats
}

// 不可压缩的测试内容：随机字节经 deflate 后必然变大。
func incompressible(n int) []byte {
	buf := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(buf)
	return buf
}

func (s *PipelineSuite) TestEndToEndGzip() {
	dir := s.T().TempDir()
	src := []byte(strings.Repeat("a", 100))
	srcPath := s.writeFile(dir, "page.txt", src)

	stats := s.run(s.newOptions(dir))
	s.EqualValues(1, stats.ArtifactsWritten.Load())
	s.EqualValues(0, stats.TaskFailures.Load())

	blob, err := os.ReadFile(srcPath + ".gz")
	s.Require().NoError(err)
	s.Less(len(blob), len(src))

	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)
	s.Equal(src, plain)

	// 产物继承源文件的时间戳。
	srcInfo, err := os.Stat(srcPath)
	s.Require().NoError(err)
	artInfo, err := os.Stat(srcPath + ".gz")
	s.Require().NoError(err)
	s.True(srcInfo.ModTime().Equal(artInfo.ModTime()))
}

func (s *PipelineSuite) TestSecondRunWritesNothing() {
	dir := s.T().TempDir()
	opts := s.newOptions(dir)
	opts.Brotli = true
	s.writeFile(dir, "page.txt", []byte(strings.Repeat("a", 100)))
	s.writeFile(dir, "other.css", []byte(strings.Repeat("body { color: red }\n", 10)))

	first := s.run(opts)
	s.EqualValues(4, first.ArtifactsWritten.Load())

	gzBefore, err := os.ReadFile(filepath.Join(dir, "page.txt.gz"))
	s.Require().NoError(err)

	second := s.run(opts)
	s.EqualValues(0, second.ArtifactsWritten.Load())
	s.EqualValues(4, second.SkippedCurrent.Load())

	gzAfter, err := os.ReadFile(filepath.Join(dir, "page.txt.gz"))
	s.Require().NoError(err)
	s.Equal(gzBefore, gzAfter)
}

func (s *PipelineSuite) TestSecondRunWritesNothingWithMinify() {
	dir := s.T().TempDir()
	original := []byte("<html>\n  <body>\n" + strings.Repeat("    <p>hello   world</p>\n", 20) + "  </body>\n</html>\n")
	srcPath := s.writeFile(dir, "page.html", original)

	opts := s.newOptions(dir)
	opts.MinifyEnabled = true
	first := s.run(opts)
	s.EqualValues(1, first.FilesMinified.Load())
	s.EqualValues(1, first.ArtifactsWritten.Load())

	srcAfterFirst, err := os.ReadFile(srcPath)
	s.Require().NoError(err)
	gzAfterFirst, err := os.ReadFile(srcPath + ".gz")
	s.Require().NoError(err)

	// 第二轮：缩减结果与现有内容等大，源文件不回写，产物保持 current。
	second := s.run(opts)
	s.EqualValues(0, second.FilesMinified.Load())
	s.EqualValues(0, second.ArtifactsWritten.Load())
	s.EqualValues(1, second.SkippedCurrent.Load())

	srcAfterSecond, err := os.ReadFile(srcPath)
	s.Require().NoError(err)
	s.Equal(srcAfterFirst, srcAfterSecond)

	gzAfterSecond, err := os.ReadFile(srcPath + ".gz")
	s.Require().NoError(err)
	s.Equal(gzAfterFirst, gzAfterSecond)
}

func (s *PipelineSuite) TestStalenessIsContentBased() {
	dir := s.T().TempDir()
	src := []byte(strings.Repeat("a", 100))
	srcPath := s.writeFile(dir, "page.txt", src)

	// 内容不匹配但 mtime 更新的产物依旧是过期的。
	artifact := srcPath + ".gz"
	s.writeFile(dir, "page.txt.gz", s.gzipOf([]byte(strings.Repeat("b", 100))))
	future := time.Now().Add(time.Hour)
	s.Require().NoError(os.Chtimes(artifact, future, future))

	s.Equal(decisionStale, decide(src, artifact, codec.NewGzipCodec()))

	opts := s.newOptions(dir)
	opts.Overwrite = true
	stats := s.run(opts)
	s.EqualValues(1, stats.ArtifactsWritten.Load())

	blob, err := os.ReadFile(artifact)
	s.Require().NoError(err)
	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)
	s.Equal(src, plain)
}

func (s *PipelineSuite) TestCorruptArtifactIsStale() {
	dir := s.T().TempDir()
	src := []byte(strings.Repeat("a", 100))
	srcPath := s.writeFile(dir, "page.txt", src)

	// 无法解码的产物视为过期，而不是中断运行的错误。
	artifact := srcPath + ".gz"
	s.writeFile(dir, "page.txt.gz", []byte("definitely not a gzip stream"))
	s.Equal(decisionStale, decide(src, artifact, codec.NewGzipCodec()))

	opts := s.newOptions(dir)
	opts.Overwrite = true
	stats := s.run(opts)
	s.EqualValues(1, stats.ArtifactsWritten.Load())
	s.EqualValues(0, stats.TaskFailures.Load())

	blob, err := os.ReadFile(artifact)
	s.Require().NoError(err)
	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)
	s.Equal(src, plain)
}

func (s *PipelineSuite) TestMinSizeBoundary() {
	dir := s.T().TempDir()
	opts := s.newOptions(dir)
	opts.MinSize = 50
	s.writeFile(dir, "small.txt", []byte(strings.Repeat("a", 49)))
	exactPath := s.writeFile(dir, "exact.txt", []byte(strings.Repeat("a", 50)))

	stats := s.run(opts)
	s.EqualValues(1, stats.SkippedTooSmall.Load())
	s.EqualValues(1, stats.ArtifactsWritten.Load())

	_, err := os.Stat(filepath.Join(dir, "small.txt.gz"))
	s.True(os.IsNotExist(err))

	blob, err := os.ReadFile(exactPath + ".gz")
	s.Require().NoError(err)
	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)
	s.Equal([]byte(strings.Repeat("a", 50)), plain)
}

func (s *PipelineSuite) TestZopfliSupersedesGzip() {
	dir := s.T().TempDir()
	srcPath := s.writeFile(dir, "page.txt", []byte(strings.Repeat("a", 100)))

	opts := s.newOptions(dir)
	opts.Gzip = true
	opts.Zopfli = true
	stats := s.run(opts)

	// 同一产物路径只允许一个任务，zopfli 胜出。
	s.EqualValues(1, stats.ArtifactsWritten.Load())

	blob, err := os.ReadFile(srcPath + ".gz")
	s.Require().NoError(err)
	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)
	s.Equal([]byte(strings.Repeat("a", 100)), plain)
}

func (s *PipelineSuite) TestCompressionUsesMinifiedContent() {
	dir := s.T().TempDir()
	original := []byte("<html>\n  <body>\n" + strings.Repeat("    <p>hello   world</p>\n", 20) + "  </body>\n</html>\n")
	srcPath := s.writeFile(dir, "page.html", original)

	opts := s.newOptions(dir)
	opts.MinifyEnabled = true
	stats := s.run(opts)
	s.EqualValues(1, stats.FilesMinified.Load())
	s.EqualValues(1, stats.ArtifactsWritten.Load())

	minified, err := os.ReadFile(srcPath)
	s.Require().NoError(err)
	s.Less(len(minified), len(original))

	blob, err := os.ReadFile(srcPath + ".gz")
	s.Require().NoError(err)
	plain, err := codec.NewGzipCodec().Decompress(blob)
	s.NoError(err)

	// 产物必须对应缩减后的内容，而不是缩减前的内容。
	s.Equal(minified, plain)
	s.NotEqual(original, plain)
}

func (s *PipelineSuite) TestMinifyFailureSkipsCompression() {
	dir := s.T().TempDir()
	broken := append([]byte("<p>hello world, this is long enough</p>"), 0xff, 0xfe)
	srcPath := s.writeFile(dir, "broken.html", broken)

	opts := s.newOptions(dir)
	opts.MinifyEnabled = true
	stats := s.run(opts)
	s.EqualValues(1, stats.MinifyFailures.Load())
	s.EqualValues(0, stats.ArtifactsWritten.Load())

	// 失败时源文件保持原样，也不会生成任何产物。
	data, err := os.ReadFile(srcPath)
	s.Require().NoError(err)
	s.Equal(broken, data)
	_, err = os.Stat(srcPath + ".gz")
	s.True(os.IsNotExist(err))
}

func (s *PipelineSuite) TestOverwriteDisabledLeavesStaleArtifact() {
	dir := s.T().TempDir()
	s.writeFile(dir, "page.txt", []byte(strings.Repeat("a", 100)))
	staleBlob := s.gzipOf([]byte(strings.Repeat("b", 100)))
	s.writeFile(dir, "page.txt.gz", staleBlob)

	stats := s.run(s.newOptions(dir))
	s.EqualValues(1, stats.SkippedExisting.Load())
	s.EqualValues(0, stats.ArtifactsWritten.Load())

	data, err := os.ReadFile(filepath.Join(dir, "page.txt.gz"))
	s.Require().NoError(err)
	s.Equal(staleBlob, data)
}

func (s *PipelineSuite) TestSizeRejectedRecomputeDeletesStaleArtifact() {
	dir := s.T().TempDir()
	s.writeFile(dir, "blob.txt", incompressible(64))
	artifact := filepath.Join(dir, "blob.txt.gz")
	s.writeFile(dir, "blob.txt.gz", s.gzipOf([]byte(strings.Repeat("b", 100))))

	opts := s.newOptions(dir)
	opts.Overwrite = true
	stats := s.run(opts)
	s.EqualValues(1, stats.SkippedSizeIncrease.Load())
	s.EqualValues(0, stats.ArtifactsWritten.Load())

	// 过期产物已被删除，不能留下与当前源内容不一致的文件。
	_, err := os.Stat(artifact)
	s.True(os.IsNotExist(err))
}

func (s *PipelineSuite) TestSizeIncreaseOnFreshFile() {
	dir := s.T().TempDir()
	s.writeFile(dir, "blob.txt", incompressible(64))

	stats := s.run(s.newOptions(dir))
	s.EqualValues(1, stats.SkippedSizeIncrease.Load())
	s.EqualValues(0, stats.ArtifactsWritten.Load())

	_, err := os.Stat(filepath.Join(dir, "blob.txt.gz"))
	s.True(os.IsNotExist(err))
}

func (s *PipelineSuite) TestRunFailsOnMissingRoot() {
	opts := s.newOptions(filepath.Join(s.T().TempDir(), "does-not-exist"))
	p, err := New(opts)
	s.Require().NoError(err)

	_, err = p.Run()
	s.Error(err)
	s.True(errors.Is(err, merr.ErrIoFailed))
}

func TestPipeline(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}
