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

package hardware

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/lk2023060901/precompress-go/pkg/log"
)

var (
	once        sync.Once
	totalMemory uint64
)

// GetCPUNum 返回当前进程可用的 CPU 核心数。
// 该值受 GOMAXPROCS（以及 automaxprocs 对容器配额的调整）影响。
func GetCPUNum() int {
	cur := runtime.GOMAXPROCS(0)
	if cur <= 0 {
		cur = runtime.NumCPU()
	}
	return cur
}

// GetMemoryCount 返回主机总内存字节数。
// 读取失败时返回 0 并记录一条警告日志。
func GetMemoryCount() uint64 {
	once.Do(func() {
		stats, err := mem.VirtualMemory()
		if err != nil {
			log.Warn("failed to read host memory info", zap.Error(err))
			return
		}
		totalMemory = stats.Total
	})
	return totalMemory
}
