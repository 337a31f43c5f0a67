// Package session provides session management for the Ludo server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs generated with nanoid
//   - Session lifecycle management and expiry
//
// Core Types:
//
// Manager owns every live session. Each session wraps its own
// engine.GameEngine; all engines share the single board topology the manager
// was created with, and each gets a fresh dice source from the manager's
// dice factory.
//
// Session Identifiers:
//
// IDs are six lower-case alphanumeric characters. Lookups are
// case-insensitive.
//
// Usage:
//
//	topo := engine.MustBuildTopology()
//	manager := session.NewManager(topo)
//
//	// Create a new session
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sess.ID)
//
// Sessions live in memory only. They can be deleted explicitly or removed
// by CleanupExpiredSessions after a period of inactivity.
package session
