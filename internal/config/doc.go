// Package config provides layered YAML configuration for mcmon.
//
// Configuration is merged in this order, later layers overriding earlier ones:
//
//  1. Built-in defaults
//  2. User configuration (~/.config/mcmon/config.yaml)
//  3. Project configuration (./.mcmon/config.yaml)
//  4. A file passed with --config
//  5. The MCMON_API_URL environment variable
//
// Command line flags are applied by the caller on top of the result.
//
//	api:
//	  baseURL: http://localhost:7860/api
//	  timeout: 10s
//	poll:
//	  interval: 5s
//	stream:
//	  reconnectDelay: 5s
//	logs:
//	  capacity: 1000
//	  scrollThreshold: 0
//	ui:
//	  colorMode: auto
//	update:
//	  repository: nemoproj/mcmon
package config
