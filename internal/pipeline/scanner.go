package pipeline

import (
	"io/fs"
	"path/filepath"

	"github.com/lk2023060901/precompress-go/pkg/util/merr"
	"github.com/lk2023060901/precompress-go/pkg/util/typeutil"
)

// scanTree 递归遍历 root，对扩展名命中 exts 的普通文件调用 fn。
// 每个路径至多被访问一次；遍历顺序不做任何保证。
func scanTree(root string, exts typeutil.Set[string], fn func(path string) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !exts.Contain(filepath.Ext(path)) {
			return nil
		}
		return fn(path)
	})
	if err != nil {
		return merr.WrapErrIoFailed(root, err)
	}
	return nil
}
