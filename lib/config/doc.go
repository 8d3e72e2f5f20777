// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Sanctum
// clients.
//
// Configuration is loaded from a single file specified by either the
// SANCTUM_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery chain and environment
// variables never override file values; the only processing performed
// after parsing is ${VAR} and ${VAR:-default} expansion in path fields
// so files can say ${HOME}/.sanctum portably.
//
// All fields are optional. A missing config file is not an error for
// callers that use [Default]: the session falls back to the default
// socket path and key directory.
package config
