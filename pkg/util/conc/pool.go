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

package conc

import (
	"fmt"

	ants "github.com/panjf2000/ants/v2"
)

// Pool 是基于 ants 实现的泛型协程池。
// 池容量固定，提交的任务超出容量时调用方会被阻塞（除非配置为 nonBlocking）。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建一个容量为 cap 的协程池。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		// ants 仅在参数非法时返回错误。
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// Submit 向协程池提交一个任务，返回对应的 Future。
// 调用方通过 Future.Await 取回任务的结果或错误。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		// 任务内部 panic 统一转换为 error 返回，
		// 避免 Future 永远无法完成。
		defer func() {
			if x := recover(); x != nil {
				future.err = fmt.Errorf("panicked with error: %v", x)
				panic(x)
			}
		}()
		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}
		res, err := method()
		if err != nil {
			future.err = err
		} else {
			future.value = res
		}
	})
	if err != nil {
		future.err = err
		close(future.ch)
	}

	return future
}

// Cap 返回协程池的容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回当前正在执行任务的 worker 数量。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回当前空闲的 worker 数量。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Release 释放协程池。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}
