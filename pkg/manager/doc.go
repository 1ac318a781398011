// Package manager provides Manager, the registry mapping queue names to
// queues.
//
// A Manager is an explicit value: create one at process start and pass it to
// whatever needs queue lookup. Names are case-insensitive.
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// which re-exports Manager.
package manager
