package handler

import (
	"net/http"
	"sync"
	"tourbook/config"
	"tourbook/di"
	"tourbook/shared/logger"
	transport "tourbook/transport/http"
)

var (
	service *transport.HTTP
	once    sync.Once
)

// Handler is the serverless entry point. The service graph is built on the
// first request and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg := config.Get()

		logger.Init(cfg)

		service = di.InitializeService()
	})

	r.RequestURI = r.URL.String()

	service.ServeHTTP(w, r)
}
