package pipeline

import (
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/util/merr"
)

// writeArtifact 将 blob 完整写入 path（截断旧内容），
// 并把 srcPath 的权限位、属主和时间戳同步到产物上。
func writeArtifact(path string, blob []byte, srcPath string) error {
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return merr.WrapErrIoFailed(path, err)
	}
	return copyMetadata(path, srcPath)
}

// copyMetadata 将 src 的文件元数据同步到 dst。
// chown 失败仅记录警告：非特权进程无法变更属主，属于预期情况。
func copyMetadata(dst, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return merr.WrapErrIoFailed(src, err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return merr.WrapErrIoFailed(dst, err)
	}

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		if err := os.Chown(dst, int(st.Uid), int(st.Gid)); err != nil {
			log.Warn("failed to propagate file ownership to artifact",
				zap.String("artifact", dst), zap.Error(err))
		}
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return merr.WrapErrIoFailed(dst, err)
	}
	return nil
}
