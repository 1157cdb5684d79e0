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

/*
Package formula 将用户编写的公式编译为查询引擎使用的嵌套数组 IR。

A formula is a custom column, a filter predicate or an aggregation written in
a small expression language:

	[Total] * 1.1
	contains([Name], 'corp', 'case-insensitive') AND [Created At] > '2024-01-01'
	Sum([Total]) / Count

Compilation runs four pure stages, each in its own package:

	syntax   lexer and recursive-descent parser producing a closed AST
	resolve  binds names against a scope.Scope and the functions table,
	         packs option flags and checks the start rule
	emit     lowers the resolved tree to ir.Clause, flattening + * and or chains
	format   renders an ir.Clause back to source

# 入门示例

	sc := scope.NewStatic(
		scope.Column("Total", 1, "type/Float"),
		scope.Segment("Expensive Things", 1),
	)

	clause, err := formula.Compile("[Total] > 10 AND [Expensive Things]", syntax.RuleBoolean, sc)
	if err != nil {
		var diag *syntax.Error
		errors.As(err, &diag)
		fmt.Println(diag.Code, diag.Span.Start)
		return
	}
	fmt.Println(clause) // ["and",[">",["field",1,{"base-type":"type/Float"}],10],["segment",1]]

# 启动规则

The start rule selects what the formula may contain:

	syntax.RuleExpression   custom columns; no aggregations or metrics
	syntax.RuleBoolean      filters; the result must be boolean
	syntax.RuleAggregation  aggregations; Count and CumulativeCount may be written bare

# 错误处理

Every stage fails with a *syntax.Error carrying a stable Code, the offending
span and, for unknown names, "did you mean" suggestions. Use errors.Is with the
syntax.Err* sentinels to test the code, or Compiler.CompileExpression to get a
serializable Diagnostic instead of an error.

# 日志

The compiler logs each stage at DEBUG through the logger package. Configure it
with WithLogger, WithLogLevel, WithLogOutput or WithDiscardLog.
*/
package formula
