// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads flagdash's configuration.
//
// The file is chosen by the --config flag or, failing that, the
// FLAGDASH_CONFIG environment variable. With neither set, [Default]
// is used: a local development server and the three standard
// environments. There is no search path.
//
// YAML is the native format. Files ending in .json or .jsonc are read
// as JSON with comments and trailing commas allowed.
//
// Named profiles override the server, dashboard and session sections,
// so one file can describe several deployments of the flag service:
//
//	server:
//	  base_url: http://localhost:8080/api/v1
//	profiles:
//	  prod:
//	    server:
//	      base_url: https://flags.example.com/api/v1
//	    dashboard:
//	      default_environment: PRODUCTION
//
// The active profile comes from the top-level "profile" key or the
// --profile flag. Path fields support ${VAR} and ${VAR:-default}
// expansion after profiles are applied.
package config
