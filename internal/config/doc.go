// Package config defines the service descriptor model for fleetctl.
//
// Every managed service lives in its own directory under the services root
// and declares itself through a service.yaml descriptor:
//
//	name: openmemory
//	description: Self-hosted memory layer
//	category: core            # core | optional | experimental (default "optional")
//	vendor:
//	  url: https://github.com/example/openmemory
//	  ref: v0.4.2
//	ports:
//	  - name: api
//	    port: 8765
//	    health_endpoint: /health
//	env_vars:
//	  - name: OPENAI_API_KEY
//	    required: true
//	    secret: true
//	dependencies:
//	  system: [docker]
//	  services: []
//	lifecycle:
//	  status: "curl -sf localhost:8765/health"
//	notes:
//	  dashboard: http://localhost:8765
//
// name and description are required; everything else is optional with the
// defaults shown above. The six lifecycle fields override the built-in
// docker compose behavior for the corresponding operation; an absent field
// means the fallback is used.
//
// A ServiceConfig is produced by parsing a descriptor and is immutable from
// then on. The registry owns the id->config catalog; everything else only
// reads it.
package config
