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

// future 的只读视图，供只需要等待完成信号的调用方使用。
type future interface {
	wait()
	OK() bool
	Err() error
}

// Future 承载协程池中异步任务的结果。
// ch 在任务完成时被关闭，之后 value/err 不再变化。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

func (future *Future[T]) wait() {
	<-future.ch
}

// Await 阻塞等待任务完成，返回任务的结果与错误。
func (future *Future[T]) Await() (T, error) {
	future.wait()
	return future.value, future.err
}

// Value 阻塞等待任务完成，仅返回结果。
// 应在确认 OK() 为 true 后调用。
func (future *Future[T]) Value() T {
	future.wait()
	return future.value
}

// OK 指示任务是否成功完成。
func (future *Future[T]) OK() bool {
	future.wait()
	return future.err == nil
}

// Err 返回任务的错误。
func (future *Future[T]) Err() error {
	future.wait()
	return future.err
}

// Inner 返回任务完成信号对应的 channel。
func (future *Future[T]) Inner() <-chan struct{} {
	return future.ch
}

// AwaitAll 等待所有 future 完成，返回遇到的第一个错误。
func AwaitAll[T future](futures ...T) error {
	for i := range futures {
		if !futures[i].OK() {
			return futures[i].Err()
		}
	}
	return nil
}

// BlockOnAll 等待所有 future 完成，返回遇到的第一个错误。
// 与 AwaitAll 不同，即使中途出错也会等待剩余 future 全部结束。
func BlockOnAll[T future](futures ...T) error {
	var err error
	for i := range futures {
		if e := futures[i].Err(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
