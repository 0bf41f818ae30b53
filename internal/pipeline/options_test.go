package pipeline

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

type OptionsSuite struct {
	suite.Suite
}

func (s *OptionsSuite) TestDefaults() {
	opts := DefaultOptions()
	s.True(opts.Gzip)
	s.True(opts.Brotli)
	s.False(opts.Zopfli)
	s.False(opts.Overwrite)
	s.Equal(defaultMinSize, opts.MinSize)
	s.ElementsMatch(defaultTextExtensions, opts.TextExtensions)
	s.ElementsMatch(defaultMinifyExtensions, opts.MinifyExtensions)
}

func (s *OptionsSuite) TestValidateRequiresOutputPath() {
	opts := DefaultOptions()
	err := opts.Validate()
	s.Error(err)
	s.True(errors.Is(err, merr.ErrParameterMissing))
}

func (s *OptionsSuite) TestValidateRejectsNegativeMinSize() {
	opts := DefaultOptions()
	opts.OutputPath = s.T().TempDir()
	opts.MinSize = -1
	err := opts.Validate()
	s.Error(err)
	s.True(errors.Is(err, merr.ErrParameterInvalid))
}

func (s *OptionsSuite) TestZopfliDisablesGzip() {
	opts := DefaultOptions()
	opts.OutputPath = s.T().TempDir()
	opts.Gzip = true
	opts.Zopfli = true

	s.NoError(opts.Validate())
	s.False(opts.Gzip)
	s.True(opts.Zopfli)

	codecs := opts.enabledCodecs()
	names := make([]string, 0, len(codecs))
	for _, c := range codecs {
		names = append(names, c.Name())
	}
	s.NotContains(names, "gzip")
	s.Contains(names, "zopfli")
}

func (s *OptionsSuite) TestExtensionNormalization() {
	opts := DefaultOptions()
	opts.OutputPath = s.T().TempDir()
	opts.TextExtensions = []string{".html", "txt", ".gz", ".br", ".css", ".css"}

	s.NoError(opts.Validate())
	s.True(opts.textExts.Contain(".html"))
	s.True(opts.textExts.Contain(".css"))
	s.False(opts.textExts.Contain("txt"))
	s.False(opts.textExts.Contain(".txt"))
	s.False(opts.textExts.Contain(".gz"))
	s.False(opts.textExts.Contain(".br"))
	s.Equal(2, opts.textExts.Len())
}

func TestOptions(t *testing.T) {
	suite.Run(t, new(OptionsSuite))
}
