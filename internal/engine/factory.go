package engine

import (
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/store"
)

func New(cfg *store.Config, brk interfaces.Broker) interfaces.Engine {
	return newEngine(cfg, brk)
}
