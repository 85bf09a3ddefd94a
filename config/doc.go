// Package config provides a service registry and human-readable pipeline configuration.
//
// Register services by name, then define pipelines in YAML (or structs) that reference
// those names and an optional per-stage timeout:
//
//	pipelines:
//	  ingest:
//	    observers: [log, tracker]
//	    stages:
//	      - fetch
//	      - name: parse
//	        timeout: 60s
//	      - validate
//
// Build a processor with Build(registry, config, shared, opts). Observer names
// resolve through BuildOptions.Observers.
package config
