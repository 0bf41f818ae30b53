package pipeline

import (
	"bytes"
	"os"

	"go.uber.org/zap"

	"github.com/lk2023060901/precompress-go/internal/codec"
	"github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// decision 描述现有压缩产物相对当前源内容的新鲜度。
type decision int

const (
	// decisionAbsent 表示产物不存在。
	decisionAbsent decision = iota
	// decisionCurrent 表示产物解压后与当前源内容一致。
	decisionCurrent
	// decisionStale 表示产物存在但内容已过期（或已损坏）。
	decisionStale
)

func (d decision) String() string {
	switch d {
	case decisionAbsent:
		return "absent"
	case decisionCurrent:
		return "current"
	case decisionStale:
		return "stale"
	default:
		return "unknown"
	}
}

// decide 判断 artifactPath 处的产物相对 data 的新鲜度。
//
// 判定只基于内容：解压现有产物并与 data 逐字节比较，
// 不参考 mtime。产物无法读取或解压失败一律视为 stale，
// 由后续的覆盖策略决定是否重算，绝不中断整个运行。
func decide(data []byte, artifactPath string, c codec.Codec) decision {
	blob, err := os.ReadFile(artifactPath)
	if err != nil {
		if os.IsNotExist(err) {
			return decisionAbsent
		}
		log.Warn("existing artifact is unreadable, treating as stale",
			zap.String("artifact", artifactPath), zap.Error(err))
		return decisionStale
	}

	plain, err := c.Decompress(blob)
	if err != nil {
		log.Warn("existing artifact failed to decode, treating as stale",
			zap.String("codec", c.Name()),
			zap.Error(merr.WrapErrArtifactCorrupt(artifactPath, err)))
		return decisionStale
	}

	if bytes.Equal(plain, data) {
		return decisionCurrent
	}
	return decisionStale
}
