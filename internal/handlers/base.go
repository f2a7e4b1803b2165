package handlers

import (
	"call-router/internal/agents"
	"call-router/internal/common/logging"
	"call-router/internal/deploy"
	"call-router/internal/esl"
	"call-router/internal/routing"
	"call-router/internal/storage"
)

type Handlers struct {
	store    storage.Store
	resolver *routing.Resolver
	agents   *agents.Manager
	deployer *deploy.Orchestrator
	monitor  *esl.StatusMonitor
	logger   logging.Logger
}

func New(store storage.Store, resolver *routing.Resolver, agentMgr *agents.Manager,
	deployer *deploy.Orchestrator, monitor *esl.StatusMonitor, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		store:    store,
		resolver: resolver,
		agents:   agentMgr,
		deployer: deployer,
		monitor:  monitor,
		logger:   logger,
	}
}
