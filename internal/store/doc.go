// Package store provides the SQLite row source that persisted entities are
// read from.
//
// Each row carries an entity key, its numeric group id, the edit version and
// the serialized entity document. The store never interprets the document;
// decoding is the decode package's job.
//
// # Ordering
//
// EachRow returns rows ORDER BY key COLLATE BINARY so that batch runs visit
// entities in the same order every time.
//
// # World files
//
// Open accepts world files written by the game server, which carry only the
// entities table, and indexes them on first open. The file is put in WAL
// mode so that "dimsum import" can write while a load reads.
package store
