// Package models defines domain entities for the spx playlist export engine.
//
// The package contains two categories of types:
//
// 1. Remote service data: lightweight structs representing playlist data
//   - [PlaylistSummary] : Playlist metadata from a listing call
//   - [Track] : Song metadata with fetch-order position and ISRC
//
// 2. Export engine results: job and batch outcomes
//   - [JobStatus] : The per-job state machine
//   - [JobResult] : Terminal outcome for one playlist
//   - [BatchResult] : Aggregate outcome in caller order
//   - [ExportRecord] : Database-backed export history row
package models
