/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package formula

import (
	"io"
	"os"

	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/logger"
)

// Option 表示对编译器默认行为的修改配置。
type Option func(*Compiler)

// WithLogger 设置自定义日志记录器。
//
// 示例:
//
//	c := formula.New(formula.WithLogger(logger.NewLogger(logger.DEBUG, os.Stderr)))
func WithLogger(log logger.Logger) Option {
	return func(c *Compiler) {
		if log != nil {
			c.log = log
			c.ownLog = true
		}
	}
}

// WithLogLevel 设置编译器日志级别。未指定日志器时创建一个写入 stderr 的独立日志器，
// 不修改全局默认日志器。
func WithLogLevel(level logger.Level) Option {
	return func(c *Compiler) {
		if !c.ownLog {
			c.log = logger.NewLogger(level, os.Stderr)
			c.ownLog = true
			return
		}
		c.log.SetLevel(level)
	}
}

// WithLogOutput 设置日志输出目标。
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(c *Compiler) {
		c.log = logger.NewLogger(level, output)
		c.ownLog = true
	}
}

// WithDiscardLog 禁用日志输出
func WithDiscardLog() Option {
	return func(c *Compiler) {
		c.log = logger.NewDiscardLogger()
		c.ownLog = true
	}
}

// WithSuggestions caps the "did you mean" hints attached to unknown names;
// 0 disables them.
func WithSuggestions(max int) Option {
	return func(c *Compiler) {
		if max < 0 {
			max = 0
		}
		c.suggestions = max
	}
}

// WithRegistry compiles against a custom function table.
func WithRegistry(r *functions.Registry) Option {
	return func(c *Compiler) {
		if r != nil {
			c.registry = r
		}
	}
}
