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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// precompressNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	precompressNamespace = "precompress"

	// 以下为当前使用的通用标签名。
	codecLabelName  = "codec"
	reasonLabelName = "reason"

	// 跳过写入 artifact 的原因取值。
	ReasonExisting     = "existing"
	ReasonCurrent      = "current"
	ReasonTooSmall     = "too_small"
	ReasonSizeIncrease = "size_increase"
)

var (
	// sizeBuckets 为源文件大小直方图的桶划分，单位为字节。
	sizeBuckets = []float64{128, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216, 67108864}

	ArtifactsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "artifacts_written_total",
			Help:      "number of compressed artifacts written to disk",
		}, []string{codecLabelName})

	ArtifactsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "artifacts_skipped_total",
			Help:      "number of artifacts not written, partitioned by reason",
		}, []string{codecLabelName, reasonLabelName})

	ArtifactsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "artifacts_failed_total",
			Help:      "number of artifacts that failed with an error",
		}, []string{codecLabelName})

	FilesMinified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "files_minified_total",
			Help:      "number of source files rewritten by the minifier",
		})

	MinifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "minify_failures_total",
			Help:      "number of source files the minifier left untouched due to errors",
		})

	BytesIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "bytes_in_total",
			Help:      "total bytes of source data fed to each codec",
		}, []string{codecLabelName})

	BytesOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: precompressNamespace,
			Name:      "bytes_out_total",
			Help:      "total bytes of compressed artifacts written by each codec",
		}, []string{codecLabelName})

	SourceFileSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: precompressNamespace,
			Name:      "source_file_size_bytes",
			Help:      "size distribution of source files picked up by the scanner",
			Buckets:   sizeBuckets,
		})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(ArtifactsWritten)
	r.MustRegister(ArtifactsSkipped)
	r.MustRegister(ArtifactsFailed)
	r.MustRegister(FilesMinified)
	r.MustRegister(MinifyFailures)
	r.MustRegister(BytesIn)
	r.MustRegister(BytesOut)
	r.MustRegister(SourceFileSize)
	metricRegisterer = r
}
