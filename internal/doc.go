// Package internal contains the implementation packages for labsite.
//
// # Package Organization
//
//   - config: Viper-backed configuration with validation
//   - errors: Typed SiteError values with classification helpers
//   - logging: slog-backed Logger with a console handler
//   - layout: Source-path normalization and naming conventions
//   - scanner: Recursive source indexing with exclusion rules
//   - registry: Task group resolution and the navigation model
//   - renderer: Template composition, navigation and task pages
//   - build: Idempotent writer, content hashing and the build orchestrator
//   - watcher: fsnotify watcher, event classification and dispatch
//   - websocket: Live-reload hub
//   - preview: Built-in preview server and external command supervisor
//   - version: Build information
//
// # Data Flow
//
// A full build indexes the source root, renders top-level templates, copies
// assets and then rebuilds every task group. The watcher classifies each
// change and calls the same Builder operations, so incremental and full
// builds produce the same output tree.
package internal
