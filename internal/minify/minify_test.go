package minify

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

type MinifySuite struct {
	suite.Suite
}

func (s *MinifySuite) TestShrinksWhitespace() {
	mf := New(nil)

	src := []byte("<html>\n  <body>\n    <p>hello   world</p>\n  </body>\n</html>\n")
	out, err := mf.Minify("index.html", src)
	s.NoError(err)
	s.Less(len(out), len(src))
	s.Contains(string(out), "hello world")
}

func (s *MinifySuite) TestKeepQuotesByDefault() {
	mf := New(nil)

	src := []byte(`<a href="/about">about</a>`)
	out, err := mf.Minify("index.html", src)
	s.NoError(err)
	s.Contains(string(out), `href="/about"`)
}

func (s *MinifySuite) TestDropQuotesWhenDisabled() {
	mf := New(map[string]bool{OptKeepQuotes: false})

	src := []byte(`<a href="/about">about</a>`)
	out, err := mf.Minify("index.html", src)
	s.NoError(err)
	s.Contains(string(out), `href=/about`)
}

func (s *MinifySuite) TestKeepComments() {
	src := []byte("<p>x</p><!-- keep me -->")

	out, err := New(nil).Minify("index.html", src)
	s.NoError(err)
	s.NotContains(string(out), "keep me")

	out, err = New(map[string]bool{OptKeepComments: true}).Minify("index.html", src)
	s.NoError(err)
	s.Contains(string(out), "keep me")
}

func (s *MinifySuite) TestRejectsInvalidUTF8() {
	mf := New(nil)

	_, err := mf.Minify("broken.html", []byte{'<', 'p', '>', 0xff, 0xfe})
	s.Error(err)
	s.True(errors.Is(err, merr.ErrMinifyFailed))
}

func TestMinify(t *testing.T) {
	suite.Run(t, new(MinifySuite))
}
