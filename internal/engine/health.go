package engine

import "github.com/kode4food/nagme/pkg/api"

// Health reports a liveness snapshot of the engine. The registry read
// doubles as the store reachability probe; service identity fields are
// filled in by the serving layer
func (e *Engine) Health() *api.HealthResponse {
	res := &api.HealthResponse{
		Status:        api.HealthHealthy,
		PendingAlarms: e.PendingAlarms(),
	}
	if !e.started.IsZero() {
		res.Uptime = e.Now().Sub(e.started).Milliseconds()
	}
	reg, err := e.GetRegistryState()
	if err != nil {
		res.Status = api.HealthUnhealthy
		return res
	}
	res.ActiveTasks = len(reg.Tasks)
	return res
}
