package layer

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a layer from its description and predecessor.
type Constructor func(opts Options, prev Layer, env Env) (Layer, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		TypeInput:      func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Input](NewInput(o, p)) },
		TypeDense:      func(o Options, p Layer, e Env) (Layer, error) { return adapt[*Dense](NewDense(o, p, e)) },
		TypeConv:       func(o Options, p Layer, e Env) (Layer, error) { return adapt[*Conv](NewConv(o, p, e)) },
		TypePool:       func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Pool](NewPool(o, p)) },
		TypeDropout:    func(o Options, p Layer, e Env) (Layer, error) { return adapt[*Dropout](NewDropout(o, p, e)) },
		TypeMaxout:     func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Maxout](NewMaxout(o, p)) },
		TypeRelu:       func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Activation](NewActivation(o, p)) },
		TypeLeakyRelu:  func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Activation](NewActivation(o, p)) },
		TypeSigmoid:    func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Activation](NewActivation(o, p)) },
		TypeTanh:       func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Activation](NewActivation(o, p)) },
		TypeRegression: func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Regression](NewRegression(o, p)) },
		TypeSoftmax:    func(o Options, p Layer, _ Env) (Layer, error) { return adapt[*Softmax](NewSoftmax(o, p)) },
	}
)

// adapt converts a concrete constructor result into a Layer without
// leaking typed nils.
func adapt[L Layer](l L, err error) (Layer, error) {
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Register adds or replaces the constructor for a type tag.
func Register(typ string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typ] = c
}

// Types returns the registered type tags in sorted order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// New builds the layer described by opts on top of prev (nil for the first
// layer). Unknown type tags fail with ErrConfiguration.
func New(opts Options, prev Layer, env Env) (Layer, error) {
	registryMu.RLock()
	c, ok := registry[opts.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown layer type %q", ErrConfiguration, opts.Type)
	}
	if env.Rand == nil {
		env.Rand = DefaultEnv().Rand
	}
	return c(opts, prev, env)
}
