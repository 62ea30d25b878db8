package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.Pool != nil {
		if err := a.Pool.Ping(r.Context()); err != nil {
			a.Logger.Error().Err(err).Msg("health: database ping failed")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "down"})
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
