// Package models defines domain entities and persistence interfaces for the songbook music library.
//
// Persistent entities:
//   - [LyricsEntry] : A song lyrics submission moving through pending, approved and private states
//   - [Artist] : An artist biography addressed by slug
//   - [Post] : A blog post, drafted then published
//   - [Station] : An entry in the internet radio directory
//
// All persistent entities embed [Base], which carries the store-assigned ID, sequence number,
// timestamps and soft delete marker, and implement the [Model] interface.
// The [Repository] interface defines standard CRUD operations for database access.
package models
