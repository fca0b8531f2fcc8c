// Package config loads manager configuration from YAML or JSON.
//
// A configuration file looks like:
//
//	logging:
//	  level: info
//	  format: json
//	  file: /var/log/bot/events.log
//	session:
//	  default_timeout: 5m
//	  max_concurrent_selectors: 64
//	dispatch:
//	  rate_limit:
//	    per_second: 20
//	    burst: 40
//	failures:
//	  driver: sqlite
//	  path: ./failures.db
//	observability:
//	  metrics: true
//	listeners:
//	  echo:
//	    prefix: "/"
//
// Durations accept Go duration strings ("30s") or numbers of seconds.
// The listeners section is free-form; read it with the Values accessors.
package config
