// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for taskdeck
// services.
//
// Configuration is loaded from a single file specified by either the
// TASKDECK_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic
// discovery; this keeps configuration deterministic and auditable.
//
// Files ending in .yaml/.yml are parsed as YAML with strict field
// checking. Files ending in .json/.jsonc are parsed as
// comment-tolerant JSON (comments and trailing commas stripped
// first). Environment variable references of the form ${VAR} and
// ${VAR:-default} are expanded in path fields after loading.
package config
