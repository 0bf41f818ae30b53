// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrCodecUnknown("lzma")
	errors.Wrap(err, "failed to resolve codec")
	s.ErrorIs(err, ErrCodecUnknown)
	s.Equal(Code(ErrCodecUnknown), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newPressError("new error", ErrCodecUnknown.errCode, false)
	s.True(sameCodeErr.Is(ErrCodecUnknown))
}

func (s *ErrSuite) TestWrap() {
	// Codec 相关错误。
	s.ErrorIs(WrapErrCodecUnknown("lzma", "failed to build codec list"), ErrCodecUnknown)
	s.ErrorIs(WrapErrSizeIncrease("gzip", 10, 30), ErrSizeIncrease)
	s.ErrorIs(WrapErrSizeIncrease("brotli", 0, 1, "empty input"), ErrSizeIncrease)
	s.ErrorIs(WrapErrCodecFailure("gzip", errors.New("mock codec err")), ErrCodecFailure)
	s.ErrorIs(WrapErrArtifactCorrupt("/tmp/index.html.gz", errors.New("bad magic")), ErrArtifactCorrupt)

	// Minify 相关错误。
	s.ErrorIs(WrapErrMinifyFailed("/tmp/index.html", errors.New("invalid utf-8")), ErrMinifyFailed)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("/tmp/index.html", os.ErrClosed), ErrIoFailed)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(".css", "css", "extension must start with a period"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(0, 1<<30, -1, "min size out of range"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("output_path", "no output path"), ErrParameterMissing)
}

func (s *ErrSuite) TestWrapNil() {
	s.NoError(WrapErrCodecFailure("gzip", nil))
	s.NoError(WrapErrArtifactCorrupt("/tmp/a.gz", nil))
	s.NoError(WrapErrMinifyFailed("/tmp/a.html", nil))
	s.NoError(WrapErrIoFailed("/tmp/a", nil))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrIoFailed("/tmp/a", os.ErrClosed), WrapErrCodecUnknown("lzma"))
	s.Equal(Code(ErrCodecUnknown), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
