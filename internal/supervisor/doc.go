// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor provides process supervision for Marquee using suture v4.

Every long-running component runs as a suture service under a three-layer
tree:

	RootSupervisor ("marquee")
	├── DataSupervisor ("data-layer")
	│   └── CacheSweeperService (one per provider with caching)
	├── ProcessingSupervisor ("processing-layer")
	│   ├── RunnerService "processor"
	│   ├── RunnerService "webhook-batcher" (if WEBHOOK_ENABLED)
	│   └── RunnerService "scheduler" (if SCHEDULE_ENABLED)
	└── APISupervisor ("api-layer")
	    ├── RunnerService "websocket-hub"
	    └── HTTPServerService

Crashed services restart with suture's backoff; canceling the root context
shuts the tree down in reverse order, which lets the processor stop its
active run after the HTTP server has drained.

Supervisor events are logged through sutureslog into the zerolog logger
(see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddProcessingService(services.NewProcessorService(proc))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
