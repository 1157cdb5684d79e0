package functions

import (
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
)

// Registry maps surface function names to their canonical table entries.
// It is populated once and never mutated afterwards, so it can be shared by
// concurrent compilations without locking.
type Registry struct {
	byName    map[string]*Function
	byKeyword map[string]*Function
	ordered   []*Function
}

// 全局函数注册器实例
var globalRegistry = mustBuild(builtins)

// Caser 不可跨 goroutine 共享
func fold(name string) string {
	return cases.Fold().String(name)
}

// NewRegistry builds a frozen registry from fns. It fails when two entries
// share a surface name or a canonical keyword.
func NewRegistry(fns ...*Function) (*Registry, error) {
	r := &Registry{
		byName:    make(map[string]*Function, len(fns)*2),
		byKeyword: make(map[string]*Function, len(fns)),
		ordered:   make([]*Function, 0, len(fns)),
	}
	for _, fn := range fns {
		if err := r.register(fn); err != nil {
			return nil, err
		}
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return fold(r.ordered[i].Name) < fold(r.ordered[j].Name)
	})
	return r, nil
}

func mustBuild(fns []*Function) *Registry {
	r, err := NewRegistry(fns...)
	if err != nil {
		panic(err)
	}
	return r
}

// register adds a copy of fn. An empty Keyword defaults to the kebab-case
// form of the surface name (isNull -> is-null).
func (r *Registry) register(def *Function) error {
	if def.Name == "" {
		return fmt.Errorf("function without a name")
	}
	fn := new(Function)
	*fn = *def
	if fn.Keyword == "" {
		fn.Keyword = strcase.ToKebab(fn.Name)
	}
	if other, exists := r.byKeyword[fn.Keyword]; exists {
		return fmt.Errorf("keyword %s already registered by %s", fn.Keyword, other.Name)
	}
	for _, name := range fn.Names() {
		key := fold(name)
		if other, exists := r.byName[key]; exists {
			return fmt.Errorf("function %s already registered as %s", name, other.Keyword)
		}
		r.byName[key] = fn
	}
	r.byKeyword[fn.Keyword] = fn
	r.ordered = append(r.ordered, fn)
	return nil
}

// Get 获取函数, matching the surface name case-insensitively.
func (r *Registry) Get(name string) (*Function, bool) {
	fn, exists := r.byName[fold(name)]
	return fn, exists
}

// ByKeyword returns the entry that emits keyword.
func (r *Registry) ByKeyword(keyword string) (*Function, bool) {
	fn, exists := r.byKeyword[keyword]
	return fn, exists
}

// GetByType 按类型获取函数列表
func (r *Registry) GetByType(fnType FunctionType) []*Function {
	var out []*Function
	for _, fn := range r.ordered {
		if fn.Type == fnType {
			out = append(out, fn)
		}
	}
	return out
}

// List returns every entry ordered by surface name.
func (r *Registry) List() []*Function {
	out := make([]*Function, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns every surface spelling, aliases included.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for _, fn := range r.ordered {
		out = append(out, fn.Names()...)
	}
	return out
}

// Default returns the built-in registry.
func Default() *Registry {
	return globalRegistry
}

// 全局函数获取方法

func Get(name string) (*Function, bool) {
	return globalRegistry.Get(name)
}

func ByKeyword(keyword string) (*Function, bool) {
	return globalRegistry.ByKeyword(keyword)
}

func GetByType(fnType FunctionType) []*Function {
	return globalRegistry.GetByType(fnType)
}

func List() []*Function {
	return globalRegistry.List()
}

func Names() []string {
	return globalRegistry.Names()
}
