/*
Package store contains the persistence core of the service.

This file embeds the bundled default room dataset used to seed the grid on a
cold boot, the counterpart of shipping the initial rooms.json alongside the
binary.
*/
package store

import _ "embed"

// SeedRooms is the bundled default room dataset: a hex grid of two rings
// around a central plot. It initializes rooms.json the first time the
// service starts against an empty data directory.
//
//go:embed seed/rooms.json
var SeedRooms []byte
