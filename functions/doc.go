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
Package functions holds the canonical function table of the formula language.

Each entry maps one surface name, plus optional aliases, to the keyword that
heads the emitted IR clause, together with what the parser and resolver need to
check a call: its type, result type, argument bounds and option flags.

# 函数表

	Sum([Total])                          -> ["sum", ...]
	CumulativeCount                       -> ["cum-count"]
	contains([A], 'x', 'case-insensitive') -> ["contains", {"case-sensitive": false}, ...]
	interval([Created At], -1, 'month')    -> ["time-interval", ..., -1, "month"]

Surface names match case-insensitively using Unicode case folding. A keyword
left empty is derived from the surface name in kebab case, so isNull becomes
is-null.

The built-in table is built once at package init and never mutated, so
Default() may be shared by concurrent compilations. NewRegistry builds an
independent table for callers that need a different vocabulary:

	r, err := functions.NewRegistry(
		&functions.Function{Name: "Sum", Type: functions.TypeAggregation, MinArgs: 1, MaxArgs: 1},
		&functions.Function{Name: "isNull", Type: functions.TypePredicate, Return: functions.ReturnBoolean, MinArgs: 1, MaxArgs: 1},
	)
*/
package functions
