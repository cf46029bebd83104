package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	probeHost     = "google.com"
	checkInterval = 60 * time.Second
	probeTimeout  = 5 * time.Second
)

// Monitor infiere el estado de la conexión a Internet resolviendo
// periódicamente un dominio conocido. Un error de DNS se interpreta
// como "fuera de línea", nunca se propaga hacia arriba.
type Monitor struct {
	mu     sync.RWMutex
	online bool

	lookup func(ctx context.Context, host string) error
	stop   chan struct{}
	done   chan struct{}
}

func NewMonitor() *Monitor {
	return &Monitor{
		lookup: func(ctx context.Context, host string) error {
			var r net.Resolver
			_, err := r.LookupHost(ctx, host)
			return err
		},
	}
}

// CheckConnection realiza una consulta DNS y actualiza el estado cacheado.
func (m *Monitor) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := m.lookup(ctx, probeHost)
	connected := err == nil

	m.mu.Lock()
	if m.online != connected {
		if connected {
			log.Info("[Connectivity] Estado de la conexión a Internet: En línea")
		} else {
			log.Warn("[Connectivity] Estado de la conexión a Internet: Fuera de línea")
		}
		m.online = connected
	}
	m.mu.Unlock()
	return connected
}

// IsInternetConnected devuelve el último estado conocido sin realizar
// una nueva verificación.
func (m *Monitor) IsInternetConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Start verifica inmediatamente y luego cada 60 segundos hasta Stop.
func (m *Monitor) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.CheckConnection(context.Background())
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CheckConnection(context.Background())
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
}
