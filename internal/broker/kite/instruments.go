package kite

import (
	"sort"
	"sync"
)

// instrumentMapper resolves symbols to instrument tokens loaded from config.
type instrumentMapper struct {
	symbolToToken map[string]uint32
	mu            sync.RWMutex
}

func newInstrumentMapper(instruments map[string]uint32) *instrumentMapper {
	im := &instrumentMapper{
		symbolToToken: make(map[string]uint32, len(instruments)),
	}
	for sym, tok := range instruments {
		im.addMapping(sym, tok)
	}
	return im
}

func (im *instrumentMapper) addMapping(symbol string, token uint32) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[symbol] = token
}

func (im *instrumentMapper) getToken(symbol string) (uint32, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, ok := im.symbolToToken[symbol]
	return token, ok
}

// symbols returns the mapped symbols in sorted order.
func (im *instrumentMapper) symbols() []string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	out := make([]string, 0, len(im.symbolToToken))
	for s := range im.symbolToToken {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
