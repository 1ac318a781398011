// Package config loads deployment configuration for queues from YAML.
//
// A configuration file declares logging, optional sqlite run history and
// per-queue options:
//
//	logging:
//	  level: info
//	  format: json
//	history:
//	  enabled: true
//	  path: ./data/history.db
//	queues:
//	  heartbeat:
//	    interval: 5s
//	    piping: true
//	  nightly:
//	    cron: "0 3 * * *"
//
// Jobs are code and are always added programmatically.
package config
